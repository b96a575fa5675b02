package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

type Product struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	SKU         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"price"`
	Cost        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cost"`
	Quantity    int             `gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0" json:"quantity"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	Status      ProductStatus   `gorm:"type:varchar(10);not null;default:'active'" json:"status"`

	// Relative path inside the image store, empty when the product has no image.
	ImagePath string `gorm:"type:varchar(255)" json:"image_path,omitempty"`

	// Odoo product.product id; nil until the product exists in the ERP.
	ExternalID *int64 `gorm:"uniqueIndex" json:"external_id,omitempty"`
	// Last record pulled from the ERP, without the image payload.
	RemoteData datatypes.JSON `gorm:"type:jsonb" json:"-"`

	// Relasi
	Transactions []Transaction `json:"transactions,omitempty"`
}

// StockValue is price times on-hand quantity.
func (p *Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
