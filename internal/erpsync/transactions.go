package erpsync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultTransactionDays is the default stock.move window.
const DefaultTransactionDays = 30

const moveStateDone = "done"

type TransactionSyncResult struct {
	Fetched  int `json:"fetched"`
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// TransactionSync mirrors done stock moves as local transactions. It never
// touches product quantities; the next product sync pulls the on-hand
// quantity the moves produced.
type TransactionSync struct {
	catalog      *Catalog
	products     ProductStore
	transactions TransactionStore
	classifier   Classifier
	logger       zerolog.Logger
	now          func() time.Time
}

func NewTransactionSync(catalog *Catalog, products ProductStore, transactions TransactionStore, classifier Classifier, logger zerolog.Logger) *TransactionSync {
	if classifier == nil {
		classifier = ReferenceClassifier{}
	}
	return &TransactionSync{
		catalog:      catalog,
		products:     products,
		transactions: transactions,
		classifier:   classifier,
		logger:       logger.With().Str("component", "transaction_sync").Logger(),
		now:          time.Now,
	}
}

// Sync pulls the moves of the last daysBack days. It fails only when the fetch
// fails.
func (s *TransactionSync) Sync(ctx context.Context, daysBack int) (TransactionSyncResult, error) {
	var result TransactionSyncResult
	if daysBack <= 0 {
		daysBack = DefaultTransactionDays
	}

	records, err := s.catalog.FetchStockMoves(ctx, s.now().AddDate(0, 0, -daysBack))
	if err != nil {
		s.logger.Error().Err(err).Msg("Stock move fetch failed")
		return result, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	result.Fetched = len(records)

	for _, raw := range records {
		move, err := DecodeStockMove(raw)
		if err != nil {
			result.Failed++
			s.logger.Error().Err(err).Msg("Skipping undecodable stock move")
			continue
		}
		if string(move.State) != moveStateDone {
			result.Skipped++
			continue
		}

		product, err := s.products.FindByExternalID(move.Product.ID)
		if errors.Is(err, repository.ErrNotFound) {
			result.Skipped++
			continue
		}
		if err != nil {
			result.Failed++
			s.logger.Error().Err(err).Int64("odoo_move_id", move.ID).Msg("Product lookup failed")
			continue
		}

		qty := int(math.Round(move.ProductQty))
		if qty == 0 {
			result.Skipped++
			s.logger.Warn().Int64("odoo_move_id", move.ID).Float64("product_qty", move.ProductQty).
				Msg("Stock move quantity rounds to zero, skipping")
			continue
		}

		externalID := move.ID
		unitPrice := decimal.NewFromFloat(move.PriceUnit)
		tx := &model.Transaction{
			ProductID:  product.ID,
			Type:       s.classifier.Classify(string(move.Reference)),
			Quantity:   qty,
			UnitPrice:  unitPrice,
			TotalPrice: model.ComputeTotal(qty, unitPrice),
			Reference:  string(move.Reference),
			Notes:      string(move.Origin),
			ExternalID: &externalID,
		}
		tx.Author(SyncActor)

		if err := s.transactions.UpsertByExternalID(tx); err != nil {
			result.Failed++
			s.logger.Error().Err(err).Int64("odoo_move_id", move.ID).Msg("Transaction upsert failed")
			continue
		}
		result.Upserted++
	}

	s.logger.Info().
		Int("fetched", result.Fetched).
		Int("upserted", result.Upserted).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Transaction sync finished")
	return result, nil
}
