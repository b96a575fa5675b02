package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is embedded by every UUID-keyed table. CreatedBy and UpdatedBy
// hold a user id, or erpsync.SyncActor for rows written by a sync.
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedBy string         `json:"created_by"`
	UpdatedBy string         `json:"updated_by"`
}

// Author records actor as both creator and last editor of a new row.
func (b *BaseModel) Author(actor string) {
	b.CreatedBy = actor
	b.UpdatedBy = actor
}

// BeforeCreate keeps an ID assigned by the caller and generates one otherwise.
func (b *BaseModel) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.UpdatedBy == "" {
		b.UpdatedBy = b.CreatedBy
	}
	return nil
}
