package repository

import (
	"go-inventory-odoo/internal/model"

	"gorm.io/gorm"
)

// AccessRepository owns the role and privilege tables.
type AccessRepository interface {
	Roles() ([]model.Role, error)
	RoleByCode(code string) (*model.Role, error)
	Privileges() ([]model.Privilege, error)
	// Seed inserts missing privileges and roles. A role that has no
	// privileges yet receives model.DefaultGrants; existing grants are left
	// as the operator edited them.
	Seed() error
}

type accessRepo struct {
	db *gorm.DB
}

func NewAccessRepo(db *gorm.DB) AccessRepository {
	return &accessRepo{db: db}
}

func (r *accessRepo) Roles() ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.Preload("Privileges").Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *accessRepo) RoleByCode(code string) (*model.Role, error) {
	var role model.Role
	if err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *accessRepo) Privileges() ([]model.Privilege, error) {
	var privileges []model.Privilege
	if err := r.db.Order("id ASC").Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

func (r *accessRepo) Seed() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range model.DefaultPrivileges {
			if err := tx.Where(model.Privilege{Code: p.Code}).Attrs(model.Privilege{Name: p.Name}).
				FirstOrCreate(&model.Privilege{}).Error; err != nil {
				return err
			}
		}

		var all []model.Privilege
		if err := tx.Order("id ASC").Find(&all).Error; err != nil {
			return err
		}

		for _, def := range model.DefaultRoles {
			role := model.Role{}
			if err := tx.Where(model.Role{Code: def.Code}).
				Attrs(model.Role{Name: def.Name, Description: def.Description}).
				FirstOrCreate(&role).Error; err != nil {
				return err
			}
			if tx.Model(&role).Association("Privileges").Count() > 0 {
				continue
			}
			if err := tx.Model(&role).Association("Privileges").Replace(model.DefaultGrants(role.Code, all)); err != nil {
				return err
			}
		}
		return nil
	})
}
