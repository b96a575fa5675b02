package erpsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-inventory-odoo/pkg/odoo"

	"github.com/shopspring/decimal"
)

const (
	modelProduct   = "product.product"
	modelStockMove = "stock.move"
)

var productFields = []string{
	"id", "name", "default_code", "list_price", "standard_price",
	"qty_available", "categ_id", "description", "barcode", "image_1920",
}

var stockMoveFields = []string{
	"id", "product_id", "product_qty", "price_unit", "state", "reference", "date", "origin",
}

// RemoteProduct is one product.product record.
type RemoteProduct struct {
	ID            int64         `json:"id"`
	Name          odoo.String   `json:"name"`
	DefaultCode   odoo.String   `json:"default_code"`
	ListPrice     float64       `json:"list_price"`
	StandardPrice float64       `json:"standard_price"`
	QtyAvailable  float64       `json:"qty_available"`
	Category      odoo.Many2One `json:"categ_id"`
	Description   odoo.String   `json:"description"`
	Barcode       odoo.String   `json:"barcode"`
	Image         odoo.String   `json:"image_1920"` // base64
}

// StockMove is one stock.move record.
type StockMove struct {
	ID         int64         `json:"id"`
	Product    odoo.Many2One `json:"product_id"`
	ProductQty float64       `json:"product_qty"`
	PriceUnit  float64       `json:"price_unit"`
	State      odoo.String   `json:"state"`
	Reference  odoo.String   `json:"reference"`
	Date       odoo.String   `json:"date"`
	Origin     odoo.String   `json:"origin"`
}

// RemoteProductInput carries the fields pushed on create and write.
type RemoteProductInput struct {
	Name        string
	SKU         string
	Description string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	CategoryID  *int64 // product.category id
	ImageBase64 string
}

func (in RemoteProductInput) values() map[string]any {
	v := map[string]any{
		"name":           in.Name,
		"default_code":   in.SKU,
		"description":    in.Description,
		"list_price":     in.Price.InexactFloat64(),
		"standard_price": in.Cost.InexactFloat64(),
	}
	if in.CategoryID != nil {
		v["categ_id"] = *in.CategoryID
	}
	if in.ImageBase64 != "" {
		v["image_1920"] = in.ImageBase64
	}
	return v
}

// Catalog wraps the product and stock.move calls the dashboard needs.
type Catalog struct {
	rpc Caller
}

func NewCatalog(rpc Caller) *Catalog {
	return &Catalog{rpc: rpc}
}

// FetchProducts returns raw active product records. Each is decoded on its own
// with DecodeProduct so one malformed record does not sink the batch.
func (c *Catalog) FetchProducts(ctx context.Context, limit, offset int) ([]json.RawMessage, error) {
	raw, err := c.rpc.Execute(ctx, modelProduct, "search_read",
		[]any{
			[]any{[]any{"active", "=", true}},
			productFields,
		},
		map[string]any{"limit": limit, "offset": offset},
	)
	if err != nil {
		return nil, err
	}
	return splitRecords(raw)
}

// FetchStockMoves returns raw stock.move records dated on or after since.
func (c *Catalog) FetchStockMoves(ctx context.Context, since time.Time) ([]json.RawMessage, error) {
	raw, err := c.rpc.Execute(ctx, modelStockMove, "search_read",
		[]any{
			[]any{[]any{"date", ">=", since.Format("2006-01-02")}},
			stockMoveFields,
		},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return splitRecords(raw)
}

// CreateProduct creates a product.product and returns its id.
func (c *Catalog) CreateProduct(ctx context.Context, in RemoteProductInput) (int64, error) {
	raw, err := c.rpc.Execute(ctx, modelProduct, "create", []any{in.values()}, nil)
	if err != nil {
		return 0, err
	}
	return odoo.DecodeID(raw)
}

// UpdateProduct writes the product fields. Quantity is not a product field in
// Odoo; use StockWriter for it.
func (c *Catalog) UpdateProduct(ctx context.Context, id int64, in RemoteProductInput) error {
	raw, err := c.rpc.Execute(ctx, modelProduct, "write", []any{[]int64{id}, in.values()}, nil)
	if err != nil {
		return err
	}
	if !odoo.Truthy(raw) {
		return fmt.Errorf("odoo refused write on %s %d", modelProduct, id)
	}
	return nil
}

func DecodeProduct(raw json.RawMessage) (RemoteProduct, error) {
	var p RemoteProduct
	if err := json.Unmarshal(raw, &p); err != nil {
		return RemoteProduct{}, fmt.Errorf("%w: product: %v", ErrInvalidPayload, err)
	}
	if p.ID <= 0 {
		return RemoteProduct{}, fmt.Errorf("%w: product without id", ErrInvalidPayload)
	}
	return p, nil
}

func DecodeStockMove(raw json.RawMessage) (StockMove, error) {
	var m StockMove
	if err := json.Unmarshal(raw, &m); err != nil {
		return StockMove{}, fmt.Errorf("%w: stock move: %v", ErrInvalidPayload, err)
	}
	if m.ID <= 0 {
		return StockMove{}, fmt.Errorf("%w: stock move without id", ErrInvalidPayload)
	}
	return m, nil
}

func splitRecords(raw json.RawMessage) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: expected a record list: %v", ErrInvalidPayload, err)
	}
	return records, nil
}
