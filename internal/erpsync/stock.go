package erpsync

import (
	"context"
	"encoding/json"
	"fmt"

	"go-inventory-odoo/pkg/odoo"

	"github.com/rs/zerolog"
)

// DefaultStockReason is the inventory name used when the caller gives none.
const DefaultStockReason = "Stock adjustment from web interface"

// StockWriter sets on-hand quantities in Odoo. Odoo is authoritative for
// quantity: callers commit local quantity only after UpdateStock succeeds.
type StockWriter struct {
	rpc    Caller
	logger zerolog.Logger
}

func NewStockWriter(rpc Caller, logger zerolog.Logger) *StockWriter {
	return &StockWriter{rpc: rpc, logger: logger.With().Str("component", "stock_writer").Logger()}
}

type stockLocation struct {
	ID   int64       `json:"id"`
	Name odoo.String `json:"name"`
}

type stockQuant struct {
	ID int64 `json:"id"`
}

// UpdateStock sets the quantity of productID at the first internal location.
// Databases that still have stock.inventory get an adjustment header, a line
// and a validation; newer ones get the stock.quant written directly.
func (w *StockWriter) UpdateStock(ctx context.Context, productID int64, quantity int, reason string) error {
	if reason == "" {
		reason = DefaultStockReason
	}
	log := w.logger.With().Int64("odoo_product_id", productID).Int("quantity", quantity).Logger()
	log.Info().Msg("Updating stock")

	location, err := w.internalLocation(ctx)
	if err != nil {
		log.Error().Err(err).Msg("No valid stock location")
		return err
	}
	log.Info().Int64("location_id", location.ID).Str("location", string(location.Name)).Msg("Using stock location")

	legacy, err := w.hasInventoryModel(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Inventory model check failed")
		return fmt.Errorf("%w: model check: %v", ErrStockWriteFailed, err)
	}

	if legacy {
		err = w.adjustWithInventory(ctx, productID, quantity, location.ID, reason)
	} else {
		err = w.adjustWithQuant(ctx, productID, quantity, location.ID)
	}
	if err != nil {
		log.Error().Err(err).Msg("Stock update failed")
		return err
	}
	log.Info().Msg("Stock updated successfully")
	return nil
}

func (w *StockWriter) internalLocation(ctx context.Context) (stockLocation, error) {
	raw, err := w.rpc.Execute(ctx, "stock.location", "search_read",
		[]any{
			[]any{[]any{"usage", "=", "internal"}},
			[]string{"id", "name", "usage"},
		},
		map[string]any{"limit": 1},
	)
	if err != nil {
		return stockLocation{}, fmt.Errorf("%w: %v", ErrNoStockLocation, err)
	}
	var locations []stockLocation
	if err := json.Unmarshal(raw, &locations); err != nil || len(locations) == 0 {
		return stockLocation{}, ErrNoStockLocation
	}
	return locations[0], nil
}

func (w *StockWriter) hasInventoryModel(ctx context.Context) (bool, error) {
	raw, err := w.rpc.Execute(ctx, "ir.model", "search_count",
		[]any{[]any{[]any{"model", "=", "stock.inventory"}}}, nil)
	if err != nil {
		return false, err
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return false, fmt.Errorf("decode model count: %w", err)
	}
	return count > 0, nil
}

func (w *StockWriter) adjustWithInventory(ctx context.Context, productID int64, quantity int, locationID int64, reason string) error {
	raw, err := w.rpc.Execute(ctx, "stock.inventory", "create", []any{map[string]any{
		"name":        reason,
		"location_id": locationID,
		"filter":      "product",
		"product_id":  productID,
	}}, nil)
	if err != nil {
		return fmt.Errorf("%w: create inventory adjustment: %v", ErrStockWriteFailed, err)
	}
	inventoryID, err := odoo.DecodeID(raw)
	if err != nil {
		return fmt.Errorf("%w: create inventory adjustment: %v", ErrStockWriteFailed, err)
	}

	raw, err = w.rpc.Execute(ctx, "stock.inventory.line", "create", []any{map[string]any{
		"inventory_id": inventoryID,
		"product_id":   productID,
		"product_qty":  quantity,
		"location_id":  locationID,
	}}, nil)
	if err != nil {
		return fmt.Errorf("%w: create inventory line: %v", ErrStockWriteFailed, err)
	}
	if _, err := odoo.DecodeID(raw); err != nil {
		return fmt.Errorf("%w: create inventory line: %v", ErrStockWriteFailed, err)
	}

	raw, err = w.rpc.Execute(ctx, "stock.inventory", "action_validate", []any{[]int64{inventoryID}}, nil)
	if err != nil {
		return fmt.Errorf("%w: validate inventory %d: %v", ErrStockWriteFailed, inventoryID, err)
	}
	if !odoo.Truthy(raw) {
		return fmt.Errorf("%w: inventory %d was not validated", ErrStockWriteFailed, inventoryID)
	}
	return nil
}

func (w *StockWriter) adjustWithQuant(ctx context.Context, productID int64, quantity int, locationID int64) error {
	raw, err := w.rpc.Execute(ctx, "stock.quant", "search_read",
		[]any{
			[]any{
				[]any{"product_id", "=", productID},
				[]any{"location_id", "=", locationID},
			},
			[]string{"id", "location_id", "quantity"},
		}, nil)
	if err != nil {
		return fmt.Errorf("%w: read stock quant: %v", ErrStockWriteFailed, err)
	}
	var quants []stockQuant
	if err := json.Unmarshal(raw, &quants); err != nil {
		return fmt.Errorf("%w: decode stock quant: %v", ErrStockWriteFailed, err)
	}

	if len(quants) == 0 {
		raw, err = w.rpc.Execute(ctx, "stock.quant", "create", []any{map[string]any{
			"product_id":  productID,
			"location_id": locationID,
			"quantity":    quantity,
		}}, nil)
		if err != nil {
			return fmt.Errorf("%w: create stock quant: %v", ErrStockWriteFailed, err)
		}
		if _, err := odoo.DecodeID(raw); err != nil {
			return fmt.Errorf("%w: create stock quant: %v", ErrStockWriteFailed, err)
		}
		return nil
	}

	raw, err = w.rpc.Execute(ctx, "stock.quant", "write", []any{
		[]int64{quants[0].ID},
		map[string]any{"quantity": quantity},
	}, nil)
	if err != nil {
		return fmt.Errorf("%w: write stock quant %d: %v", ErrStockWriteFailed, quants[0].ID, err)
	}
	if !odoo.Truthy(raw) {
		return fmt.Errorf("%w: stock quant %d was not written", ErrStockWriteFailed, quants[0].ID)
	}
	return nil
}
