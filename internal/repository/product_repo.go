package repository

import (
	"go-inventory-odoo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter narrows FindAll. Zero values mean no filter.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Status     model.ProductStatus
	Search     string
	// MaxQuantity keeps products with quantity < *MaxQuantity.
	MaxQuantity *int
	OutOfStock  bool
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll(filter ProductFilter) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindBySKU(sku string) (*model.Product, error)
	FindByExternalID(externalID int64) (*model.Product, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID) error
	UpsertByExternalID(product *model.Product) error
	ImagePaths() ([]string, error)
	ImagePathsExcludingExternalIDs(externalIDs []int64) ([]string, error)
	ApplyStockTransaction(productID uuid.UUID, newQuantity int, transaction *model.Transaction) error
	WithLockedProduct(id uuid.UUID, fn func(product *model.Product, locked ProductRepository) error) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll(filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	query := r.db.Preload("Category")
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}
	if filter.MaxQuantity != nil {
		query = query.Where("quantity < ?", *filter.MaxQuantity)
	}
	if filter.OutOfStock {
		query = query.Where("quantity = 0")
	}
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "sku = ?", sku).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) FindByExternalID(externalID int64) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "external_id = ?", externalID).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Omit("Category", "Transactions").Save(product).Error
}

// Delete removes the row for good so the SKU and external id can be reused.
// Products with recorded transactions are kept and ErrInUse is returned.
func (r *productRepo) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Transaction{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrInUse
		}
		res := tx.Unscoped().Delete(&model.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpsertByExternalID inserts the product or overwrites the synced columns of
// the row holding the same external id. The local id and creation audit of an
// existing row are kept and copied back into product.
func (r *productRepo) UpsertByExternalID(product *model.Product) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Product
		err := tx.Unscoped().Where("external_id = ?", *product.ExternalID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			product.CreatedBy = product.UpdatedBy
			return tx.Omit("Category", "Transactions").Create(product).Error
		}
		if err != nil {
			return err
		}

		product.ID = existing.ID
		product.CreatedAt = existing.CreatedAt
		product.CreatedBy = existing.CreatedBy
		return tx.Unscoped().Model(&existing).Updates(map[string]interface{}{
			"name":        product.Name,
			"sku":         product.SKU,
			"description": product.Description,
			"price":       product.Price,
			"cost":        product.Cost,
			"quantity":    product.Quantity,
			"category_id": product.CategoryID,
			"status":      product.Status,
			"image_path":  product.ImagePath,
			"remote_data": product.RemoteData,
			"updated_at":  product.UpdatedAt,
			"updated_by":  product.UpdatedBy,
			"deleted_at":  nil,
		}).Error
	})
}

func (r *productRepo) ImagePaths() ([]string, error) {
	return r.ImagePathsExcludingExternalIDs(nil)
}

// ImagePathsExcludingExternalIDs returns the image of every product whose
// external id is not listed, local-only products included.
func (r *productRepo) ImagePathsExcludingExternalIDs(externalIDs []int64) ([]string, error) {
	var paths []string
	query := r.db.Model(&model.Product{}).Where("image_path <> ''")
	if len(externalIDs) > 0 {
		query = query.Where("external_id IS NULL OR external_id NOT IN ?", externalIDs)
	}
	err := query.Distinct().Pluck("image_path", &paths).Error
	return paths, err
}

// ApplyStockTransaction sets the quantity and inserts the transaction row in
// one database transaction.
func (r *productRepo) ApplyStockTransaction(productID uuid.UUID, newQuantity int, transaction *model.Transaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).
			Where("id = ?", productID).
			Updates(map[string]interface{}{
				"quantity":   newQuantity,
				"updated_by": transaction.CreatedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		transaction.ProductID = productID
		return tx.Omit("Product").Create(transaction).Error
	})
}

// WithLockedProduct reads the product FOR UPDATE and runs fn inside the same
// database transaction. Writes made through locked commit with it, so a
// competing caller only sees the row once fn returned. An error from fn rolls
// everything back and is returned as is.
func (r *productRepo) WithLockedProduct(id uuid.UUID, fn func(product *model.Product, locked ProductRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var product model.Product
		// Kunci baris produk (Locking) untuk mencegah race condition
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error
		if err != nil {
			return translate(err)
		}
		return fn(&product, &productRepo{tx})
	})
}
