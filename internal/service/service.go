package service

import (
	"context"

	"go-inventory-odoo/internal/erpsync"
)

// Actor is the authenticated user behind a mutation.
type Actor struct {
	ID    string
	Name  string
	Email string
}

// ProductGateway pushes product fields to Odoo.
type ProductGateway interface {
	CreateProduct(ctx context.Context, in erpsync.RemoteProductInput) (int64, error)
	UpdateProduct(ctx context.Context, id int64, in erpsync.RemoteProductInput) error
}

// StockGateway sets on-hand quantity in Odoo.
type StockGateway interface {
	UpdateStock(ctx context.Context, productID int64, quantity int, reason string) error
}

// ImageProcessor stores an Odoo image payload for a product.
type ImageProcessor interface {
	Process(externalID int64, payload, fallback string) (string, error)
}
