package service

import (
	"context"
	"errors"
	"fmt"

	"go-inventory-odoo/internal/cache"
	"go-inventory-odoo/internal/erpsync"
	"go-inventory-odoo/internal/events"
	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"
	"go-inventory-odoo/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name        string              `json:"name" validate:"required,max=255"`
	SKU         string              `json:"sku" validate:"required,max=50"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price" validate:"dgte=0"`
	Cost        decimal.Decimal     `json:"cost" validate:"dgte=0"`
	Quantity    int                 `json:"quantity" validate:"gte=0"`
	CategoryID  uuid.UUID           `json:"category_id" validate:"uuid_required"`
	Status      model.ProductStatus `json:"status" validate:"required,oneof=active inactive"`
	// Base64 image sent to Odoo as image_1920.
	Image string `json:"image,omitempty" validate:"omitempty,base64"`
}

type TransactionRequest struct {
	ProductID uuid.UUID             `json:"product_id" validate:"uuid_required"`
	Type      model.TransactionType `json:"type" validate:"required,oneof=purchase sale adjustment"`
	Quantity  int                   `json:"quantity" validate:"ne=0"`
	UnitPrice decimal.Decimal       `json:"unit_price" validate:"dgte=0"`
	Reference string                `json:"reference" validate:"required,max=255"`
	Notes     string                `json:"notes"`
}

type InventoryService interface {
	CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error
	RecordTransaction(ctx context.Context, req *TransactionRequest, actor Actor) (*model.Transaction, error)
	GetAllProducts(filter repository.ProductFilter) ([]model.Product, error)
	GetProductByID(id uuid.UUID) (*model.Product, error)
	GetAllTransactions(filter repository.TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(id uuid.UUID) (*model.Transaction, error)
	GetAllCategories() ([]model.Category, error)
}

type inventoryService struct {
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	categoryRepo    repository.CategoryRepository
	catalog         ProductGateway
	stock           StockGateway
	images          ImageProcessor
	store           storage.ImageStore
	publisher       events.Publisher
	cache           cache.Cache
	logger          zerolog.Logger
}

func NewInventoryService(
	pRepo repository.ProductRepository,
	tRepo repository.TransactionRepository,
	cRepo repository.CategoryRepository,
	catalog ProductGateway,
	stock StockGateway,
	images ImageProcessor,
	store storage.ImageStore,
	publisher events.Publisher,
	aggregates cache.Cache,
	logger zerolog.Logger,
) InventoryService {
	return &inventoryService{
		productRepo:     pRepo,
		transactionRepo: tRepo,
		categoryRepo:    cRepo,
		catalog:         catalog,
		stock:           stock,
		images:          images,
		store:           store,
		publisher:       publisher,
		cache:           aggregates,
		logger:          logger.With().Str("component", "inventory_service").Logger(),
	}
}

// CreateProduct creates the product in Odoo first and inserts the local row
// only once Odoo has assigned its id.
func (s *inventoryService) CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error) {
	// 1. Validasi Struct Dasar
	if err := validate(req); err != nil {
		return nil, err
	}

	// 2. Cek Duplikasi SKU
	if err := ensureSKUFree(s.productRepo, req.SKU, uuid.Nil); err != nil {
		return nil, err
	}

	category, err := s.findCategory(req.CategoryID)
	if err != nil {
		return nil, err
	}

	// 3. Odoo first
	externalID, err := s.catalog.CreateProduct(ctx, remoteInput(req, category))
	if err != nil {
		s.logger.Error().Err(err).Str("sku", req.SKU).Msg("Failed to create product in Odoo")
		return nil, fmt.Errorf("%w: create product: %v", ErrRemoteWrite, err)
	}

	quantity := req.Quantity
	if quantity > 0 {
		if err := s.stock.UpdateStock(ctx, externalID, quantity, erpsync.DefaultStockReason); err != nil {
			// Odoo holds the product with no stock; mirror that rather than the request.
			s.logger.Warn().Err(err).Int64("odoo_product_id", externalID).
				Msg("Initial stock not accepted by Odoo, storing quantity 0")
			quantity = 0
		}
	}

	imagePath := ""
	if req.Image != "" {
		if imagePath, err = s.images.Process(externalID, req.Image, ""); err != nil {
			s.logger.Error().Err(err).Int64("odoo_product_id", externalID).Msg("Image write failed")
		}
	}

	product := &model.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		Cost:        req.Cost,
		Quantity:    quantity,
		CategoryID:  &category.ID,
		Status:      req.Status,
		ImagePath:   imagePath,
		ExternalID:  &externalID,
	}
	product.Author(actor.ID)

	// 4. Simpan ke Database
	if err := s.productRepo.Create(product); err != nil {
		// The next product sync brings the Odoo record back in.
		s.logger.Error().Err(err).Int64("odoo_product_id", externalID).Msg("Local insert failed after Odoo create")
		return nil, err
	}
	product.Category = category

	s.afterMutation(ctx, events.New(events.ProductCreated, product.ID.String(), productPayload(product, actor)))
	return product, nil
}

// UpdateProduct writes the product fields to Odoo, then the quantity when it
// changed, and saves locally only after both succeeded. The product row stays
// locked throughout so a concurrent stock movement cannot interleave.
func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		updated     *model.Product
		oldQuantity int
	)
	err := s.productRepo.WithLockedProduct(id, func(existing *model.Product, locked repository.ProductRepository) error {
		if existing.ExternalID == nil {
			return ErrProductNotLinked
		}
		if err := ensureSKUFree(locked, req.SKU, existing.ID); err != nil {
			return err
		}
		category, err := s.findCategory(req.CategoryID)
		if err != nil {
			return err
		}

		externalID := *existing.ExternalID
		if err := s.catalog.UpdateProduct(ctx, externalID, remoteInput(req, category)); err != nil {
			s.logger.Error().Err(err).Int64("odoo_product_id", externalID).Msg("Failed to update product in Odoo")
			return fmt.Errorf("%w: update product: %v", ErrRemoteWrite, err)
		}

		oldQuantity = existing.Quantity
		if req.Quantity != oldQuantity {
			if err := s.stock.UpdateStock(ctx, externalID, req.Quantity, erpsync.DefaultStockReason); err != nil {
				return fmt.Errorf("%w: update stock: %v", ErrRemoteWrite, err)
			}
		}

		imagePath := existing.ImagePath
		if req.Image != "" {
			if imagePath, err = s.images.Process(externalID, req.Image, existing.ImagePath); err != nil {
				s.logger.Error().Err(err).Int64("odoo_product_id", externalID).Msg("Image write failed")
			}
		}

		existing.Name = req.Name
		existing.SKU = req.SKU
		existing.Description = req.Description
		existing.Price = req.Price
		existing.Cost = req.Cost
		existing.Quantity = req.Quantity
		existing.CategoryID = &category.ID
		existing.Category = nil
		existing.Status = req.Status
		existing.ImagePath = imagePath
		existing.UpdatedBy = actor.ID

		if err := locked.Update(existing); err != nil {
			s.logger.Error().Err(err).Int64("odoo_product_id", externalID).Msg("Local update failed after Odoo write")
			return err
		}
		existing.Category = category
		updated = existing
		return nil
	})
	if err != nil {
		return nil, productError(err)
	}

	payload := productPayload(updated, actor)
	payload["old_quantity"] = oldQuantity
	s.afterMutation(ctx, events.New(events.ProductUpdated, updated.ID.String(), payload))
	return updated, nil
}

// DeleteProduct removes the local row and its image. The Odoo product is kept.
func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error {
	product, err := s.findProduct(id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrProductNotFound
		case errors.Is(err, repository.ErrInUse):
			return ErrProductInUse
		}
		return err
	}
	if product.ImagePath != "" {
		if err := s.store.Delete(product.ImagePath); err != nil {
			s.logger.Warn().Err(err).Str("image", product.ImagePath).Msg("Could not delete product image")
		}
	}

	s.afterMutation(ctx, events.New(events.ProductDeleted, product.ID.String(), productPayload(product, actor)))
	return nil
}

// RecordTransaction applies a manual stock movement. The product row is
// locked from the quantity floor check until the local commit, so the floor
// is checked against committed stock and nothing is sent to Odoo when it
// fails. The local quantity and transaction row are written only after Odoo
// accepted the new quantity.
func (s *inventoryService) RecordTransaction(ctx context.Context, req *TransactionRequest, actor Actor) (*model.Transaction, error) {
	// 1. Validasi Input
	if err := validate(req); err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		Type:       req.Type,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		TotalPrice: model.ComputeTotal(req.Quantity, req.UnitPrice),
		Reference:  req.Reference,
		Notes:      req.Notes,
	}
	tx.Author(actor.ID)

	var (
		product     *model.Product
		newQuantity int
	)
	err := s.productRepo.WithLockedProduct(req.ProductID, func(locked *model.Product, repo repository.ProductRepository) error {
		// 2. Hitung Logic Stok
		next, err := NextQuantity(locked.Quantity, req.Type, req.Quantity)
		if err != nil {
			return err
		}
		if locked.ExternalID == nil {
			return ErrProductNotLinked
		}

		// 3. Odoo first
		if err := s.stock.UpdateStock(ctx, *locked.ExternalID, next, req.Reference); err != nil {
			return fmt.Errorf("%w: update stock: %v", ErrRemoteWrite, err)
		}

		// 4. Update stok + simpan log transaksi
		if err := repo.ApplyStockTransaction(locked.ID, next, tx); err != nil {
			s.logger.Error().Err(err).Int64("odoo_product_id", *locked.ExternalID).
				Msg("Local commit failed after Odoo stock write, next product sync restores quantity")
			return err
		}
		product, newQuantity = locked, next
		return nil
	})
	if err != nil {
		return nil, productError(err)
	}

	// 5. Broadcast
	s.afterMutation(ctx, events.New(events.TransactionCreated, tx.ID.String(), map[string]interface{}{
		"transaction": map[string]interface{}{
			"id":         tx.ID,
			"type":       tx.Type,
			"quantity":   tx.Quantity,
			"product_id": product.ID,
			"product": map[string]interface{}{
				"name": product.Name,
				"sku":  product.SKU,
			},
			"old_quantity": product.Quantity,
			"new_quantity": newQuantity,
		},
		"user":    actorPayload(actor),
		"message": fmt.Sprintf("%s recorded %s of %d units of '%s'", actor.Name, tx.Type, tx.Quantity, product.Name),
	}))
	return tx, nil
}

// NextQuantity is the on-hand quantity after a movement. Purchases and
// positive adjustments add the magnitude, everything else removes it.
func NextQuantity(current int, txType model.TransactionType, quantity int) (int, error) {
	magnitude := quantity
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if txType == model.TxPurchase || (txType == model.TxAdjustment && quantity > 0) {
		return current + magnitude, nil
	}
	next := current - magnitude
	if next < 0 {
		return current, fmt.Errorf("%w: %d on hand, %d requested", ErrInsufficientStock, current, magnitude)
	}
	return next, nil
}

func (s *inventoryService) GetAllProducts(filter repository.ProductFilter) ([]model.Product, error) {
	return s.productRepo.FindAll(filter)
}

func (s *inventoryService) GetProductByID(id uuid.UUID) (*model.Product, error) {
	return s.findProduct(id)
}

func (s *inventoryService) GetAllTransactions(filter repository.TransactionFilter) ([]model.Transaction, error) {
	return s.transactionRepo.FindAll(filter)
}

func (s *inventoryService) GetTransactionByID(id uuid.UUID) (*model.Transaction, error) {
	tx, err := s.transactionRepo.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	return tx, err
}

func (s *inventoryService) GetAllCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *inventoryService) findProduct(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, productError(err)
	}
	return product, nil
}

func productError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *inventoryService) findCategory(id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return category, err
}

func ensureSKUFree(products repository.ProductRepository, sku string, owner uuid.UUID) error {
	existing, err := products.FindBySKU(sku)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != owner {
		return ErrDuplicateSKU
	}
	return nil
}

// afterMutation publishes the event and drops cached aggregates. Neither
// failure affects the committed change.
func (s *inventoryService) afterMutation(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", event.Type).Msg("Event not delivered")
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Cache invalidation failed")
	}
}

func remoteInput(req *ProductRequest, category *model.Category) erpsync.RemoteProductInput {
	return erpsync.RemoteProductInput{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		Cost:        req.Cost,
		CategoryID:  category.ExternalID,
		ImageBase64: req.Image,
	}
}

func productPayload(p *model.Product, actor Actor) map[string]interface{} {
	return map[string]interface{}{
		"product": map[string]interface{}{
			"id":       p.ID,
			"sku":      p.SKU,
			"name":     p.Name,
			"quantity": p.Quantity,
			"price":    p.Price,
		},
		"user": actorPayload(actor),
	}
}

func actorPayload(actor Actor) map[string]interface{} {
	return map[string]interface{}{
		"id":    actor.ID,
		"name":  actor.Name,
		"email": actor.Email,
	}
}
