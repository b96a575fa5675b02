package erpsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DefaultProductLimit bounds a single product pull.
const DefaultProductLimit = 500

// SyncActor is recorded in UpdatedBy on rows written by a sync.
const SyncActor = "odoo-sync"

type ProductSyncResult struct {
	Fetched       int      `json:"fetched"`
	Upserted      int      `json:"upserted"`
	Failed        int      `json:"failed"`
	ImagesDeleted []string `json:"images_deleted"`
}

// ProductSync pulls the Odoo catalog into the local product table.
type ProductSync struct {
	catalog    *Catalog
	products   ProductStore
	categories *CategoryMapper
	images     *ImageReconciler
	limit      int
	logger     zerolog.Logger
	now        func() time.Time
}

func NewProductSync(catalog *Catalog, products ProductStore, categories *CategoryMapper, images *ImageReconciler, limit int, logger zerolog.Logger) *ProductSync {
	if limit <= 0 {
		limit = DefaultProductLimit
	}
	return &ProductSync{
		catalog:    catalog,
		products:   products,
		categories: categories,
		images:     images,
		limit:      limit,
		logger:     logger.With().Str("component", "product_sync").Logger(),
		now:        time.Now,
	}
}

// Sync upserts every fetched product keyed by its Odoo id, then deletes stored
// images nothing references any more. It fails only when the fetch itself
// fails; a product that cannot be mapped is logged and skipped.
func (s *ProductSync) Sync(ctx context.Context) (ProductSyncResult, error) {
	var result ProductSyncResult

	records, err := s.catalog.FetchProducts(ctx, s.limit, 0)
	if err != nil {
		s.logger.Error().Err(err).Msg("Product fetch failed")
		return result, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	result.Fetched = len(records)

	cleanup := true
	preSync, err := s.products.ImagePaths()
	if err != nil {
		// Without the current references nothing can be deleted safely.
		s.logger.Error().Err(err).Msg("Could not load image references, skipping image cleanup")
		cleanup = false
	}

	var assigned []string
	seen := make([]int64, 0, len(records))
	for _, raw := range records {
		remote, err := DecodeProduct(raw)
		if err != nil {
			result.Failed++
			s.logger.Error().Err(err).Msg("Sync failed: undecodable product")
			continue
		}
		seen = append(seen, remote.ID)

		imagePath, err := s.syncProduct(remote)
		if err != nil {
			result.Failed++
			s.logger.Error().Err(err).Int64("odoo_product_id", remote.ID).Msg("Sync failed")
			continue
		}
		result.Upserted++
		assigned = append(assigned, imagePath)
	}

	if !cleanup {
		return result, nil
	}

	// Products missing from this round keep their images: the ERP may have
	// archived them or they fell outside the page.
	untouched, err := s.products.ImagePathsExcludingExternalIDs(seen)
	if err != nil {
		s.logger.Error().Err(err).Msg("Could not load images of unsynced products, skipping image cleanup")
		return result, nil
	}

	deleted, err := s.images.DeleteUnused(toSet(preSync, assigned, untouched))
	if err != nil {
		s.logger.Error().Err(err).Msg("Image cleanup failed")
	}
	result.ImagesDeleted = deleted

	s.logger.Info().
		Int("fetched", result.Fetched).
		Int("upserted", result.Upserted).
		Int("failed", result.Failed).
		Int("images_deleted", len(deleted)).
		Msg("Product sync finished")
	return result, nil
}

// syncProduct upserts one remote product and returns the image path it got.
func (s *ProductSync) syncProduct(remote RemoteProduct) (string, error) {
	if remote.Name == "" {
		return "", fmt.Errorf("%w: product %d has no name", ErrInvalidPayload, remote.ID)
	}
	if !remote.Category.Valid() {
		return "", fmt.Errorf("%w: product %d has no category", ErrInvalidPayload, remote.ID)
	}

	var fallback string
	existing, err := s.products.FindByExternalID(remote.ID)
	switch {
	case err == nil:
		fallback = existing.ImagePath
	case !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("load product: %w", err)
	}

	categoryID, err := s.categories.Resolve(remote.Category.ID, remote.Category.Name)
	if err != nil {
		return "", err
	}

	imagePath, err := s.images.Process(remote.ID, string(remote.Image), fallback)
	if err != nil {
		s.logger.Error().Err(err).Int64("odoo_product_id", remote.ID).Msg("Image write failed, keeping previous image")
	}

	externalID := remote.ID
	product := &model.Product{
		Name:        string(remote.Name),
		SKU:         skuFor(remote),
		Description: string(remote.Description),
		Price:       decimal.NewFromFloat(remote.ListPrice),
		Cost:        decimal.NewFromFloat(remote.StandardPrice),
		Quantity:    s.quantityFor(remote),
		CategoryID:  &categoryID,
		Status:      model.ProductActive,
		ImagePath:   imagePath,
		ExternalID:  &externalID,
		RemoteData:  snapshot(remote),
	}
	product.UpdatedBy = SyncActor
	// Always refreshed, even when nothing changed remotely.
	product.UpdatedAt = s.now()

	if err := s.products.UpsertByExternalID(product); err != nil {
		return "", fmt.Errorf("upsert product: %w", err)
	}
	return imagePath, nil
}

func (s *ProductSync) quantityFor(remote RemoteProduct) int {
	qty := int(math.Round(remote.QtyAvailable))
	if qty < 0 {
		s.logger.Warn().Int64("odoo_product_id", remote.ID).Float64("qty_available", remote.QtyAvailable).
			Msg("Negative on-hand quantity in Odoo, storing 0")
		return 0
	}
	return qty
}

// skuFor falls back to a synthetic code because the local SKU is unique and
// Odoo allows products without an internal reference.
func skuFor(remote RemoteProduct) string {
	if remote.DefaultCode != "" {
		return string(remote.DefaultCode)
	}
	return fmt.Sprintf("ODOO-%d", remote.ID)
}

func snapshot(remote RemoteProduct) datatypes.JSON {
	remote.Image = ""
	data, err := json.Marshal(remote)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
