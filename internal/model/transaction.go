package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxPurchase   TransactionType = "purchase"
	TxSale       TransactionType = "sale"
	TxAdjustment TransactionType = "adjustment"
)

// Transaction rows are never updated or deleted once created.
type Transaction struct {
	BaseModel
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product        `json:"product,omitempty"`
	Type       TransactionType `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity   int             `gorm:"not null" json:"quantity"` // signed, never zero
	UnitPrice  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_price"` // Snapshot quantity * unit price
	Reference  string          `gorm:"type:varchar(255)" json:"reference"`
	Notes      string          `gorm:"type:text" json:"notes"`

	// Odoo stock.move id for synced rows.
	ExternalID *int64 `gorm:"uniqueIndex" json:"external_id,omitempty"`
}

// ComputeTotal is the stored total: quantity times unit price.
func ComputeTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
