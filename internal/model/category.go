package model

// CategoryImportDescription is stored on categories created by the product sync.
const CategoryImportDescription = "Imported from Odoo"

type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	ExternalID  *int64 `gorm:"uniqueIndex" json:"external_id,omitempty"` // product.category id in Odoo

	Products []Product `json:"products,omitempty"`
}
