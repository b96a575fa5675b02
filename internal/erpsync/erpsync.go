// Package erpsync keeps the local product, category and transaction tables in
// step with Odoo. Pulls are full-table and manual; pushes go through
// StockWriter and Catalog before any local commit.
//
// Nothing here coordinates concurrent runs. Two simultaneous product syncs can
// race on image deletion and upserts; the next sync repairs the result.
package erpsync

import (
	"context"
	"encoding/json"
	"errors"

	"go-inventory-odoo/internal/model"
)

var (
	// ErrFetchFailed means the initial pull from Odoo failed and nothing was synced.
	ErrFetchFailed = errors.New("fetch from odoo failed")
	// ErrInvalidPayload marks a remote record that cannot be mapped locally.
	ErrInvalidPayload = errors.New("invalid remote payload")
	// ErrNoStockLocation means Odoo has no internal stock location to adjust.
	ErrNoStockLocation = errors.New("no internal stock location in odoo")
	// ErrStockWriteFailed wraps the stage of UpdateStock that failed.
	ErrStockWriteFailed = errors.New("odoo stock update failed")
)

// Caller is the slice of *odoo.Client the sync core uses.
type Caller interface {
	Execute(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error)
}

// ProductStore is the local product table as seen by the sync engines.
// FindByExternalID returns repository.ErrNotFound when no row matches.
type ProductStore interface {
	FindByExternalID(externalID int64) (*model.Product, error)
	UpsertByExternalID(product *model.Product) error
	ImagePaths() ([]string, error)
	ImagePathsExcludingExternalIDs(externalIDs []int64) ([]string, error)
}

type CategoryStore interface {
	FirstOrCreateByExternalID(externalID int64, name, description string) (*model.Category, error)
}

type TransactionStore interface {
	UpsertByExternalID(tx *model.Transaction) error
}
