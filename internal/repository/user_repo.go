package repository

import (
	"strings"

	"go-inventory-odoo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	Create(user *model.User) error
	// UpdateCredentials stores a new password hash and token version together.
	UpdateCredentials(userID uuid.UUID, passwordHash, tokenVersion string) error
	UpdateTokenVersion(userID uuid.UUID, tokenVersion string) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

// withAccess loads everything EffectivePrivileges reads.
func withAccess(db *gorm.DB) *gorm.DB {
	return db.Preload("Role.Privileges").Preload("Privileges")
}

// NormalizeEmail is the stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Scopes(withAccess).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.Scopes(withAccess).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) Create(user *model.User) error {
	user.Email = NormalizeEmail(user.Email)
	return r.db.Omit("Role").Create(user).Error
}

func (r *userRepo) UpdateCredentials(userID uuid.UUID, passwordHash, tokenVersion string) error {
	return r.updateColumns(userID, map[string]interface{}{
		"password":      passwordHash,
		"token_version": tokenVersion,
	})
}

func (r *userRepo) UpdateTokenVersion(userID uuid.UUID, tokenVersion string) error {
	return r.updateColumns(userID, map[string]interface{}{"token_version": tokenVersion})
}

func (r *userRepo) updateColumns(userID uuid.UUID, columns map[string]interface{}) error {
	res := r.db.Model(&model.User{}).Where("id = ?", userID).Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
