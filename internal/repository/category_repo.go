package repository

import (
	"go-inventory-odoo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	FindAll() ([]model.Category, error)
	FindByID(id uuid.UUID) (*model.Category, error)
	FirstOrCreateByExternalID(externalID int64, name, description string) (*model.Category, error)
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) FindAll() ([]model.Category, error) {
	var categories []model.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) FindByID(id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

// FirstOrCreateByExternalID never renames an existing category.
func (r *categoryRepo) FirstOrCreateByExternalID(externalID int64, name, description string) (*model.Category, error) {
	var category model.Category
	err := r.db.
		Where(model.Category{ExternalID: &externalID}).
		Attrs(model.Category{Name: name, Description: description}).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}
