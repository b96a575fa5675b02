package erpsync

import (
	"strings"

	"go-inventory-odoo/internal/model"
)

// Classifier decides the local transaction type of a stock move.
type Classifier interface {
	Classify(reference string) model.TransactionType
}

// ReferenceClassifier guesses the type from the move's free-text reference:
// "purchase" wins over "sale", anything else is an adjustment. Odoo has no
// field carrying this directly on stock.move, so it is a heuristic.
type ReferenceClassifier struct{}

func (ReferenceClassifier) Classify(reference string) model.TransactionType {
	ref := strings.ToLower(reference)
	switch {
	case strings.Contains(ref, "purchase"):
		return model.TxPurchase
	case strings.Contains(ref, "sale"):
		return model.TxSale
	default:
		return model.TxAdjustment
	}
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(reference string) model.TransactionType

func (f ClassifierFunc) Classify(reference string) model.TransactionType { return f(reference) }
