package erpsync

import (
	"fmt"

	"go-inventory-odoo/internal/model"

	"github.com/google/uuid"
)

// CategoryMapper maps Odoo product.category ids to local categories.
type CategoryMapper struct {
	categories CategoryStore
}

func NewCategoryMapper(categories CategoryStore) *CategoryMapper {
	return &CategoryMapper{categories: categories}
}

// Resolve returns the local category for externalID, creating it with name on
// first sight. Repeated calls with the same id return the same category.
func (m *CategoryMapper) Resolve(externalID int64, name string) (uuid.UUID, error) {
	if externalID <= 0 {
		return uuid.Nil, fmt.Errorf("%w: category id %d", ErrInvalidPayload, externalID)
	}
	category, err := m.categories.FirstOrCreateByExternalID(externalID, name, model.CategoryImportDescription)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve category %d: %w", externalID, err)
	}
	return category.ID, nil
}
