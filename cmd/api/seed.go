package main

import (
	"errors"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

// seedAccess installs the default privileges and roles, then a MASTER_ADMIN
// account when none exists under defaultAdminEmail. Failures are logged and
// the server starts anyway.
func seedAccess(access repository.AccessRepository, users repository.UserRepository, logger zerolog.Logger) {
	if err := access.Seed(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed roles and privileges")
		return
	}

	_, err := users.FindByEmail(defaultAdminEmail)
	if err == nil {
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Warn().Err(err).Msg("Failed to look up admin user")
		return
	}

	master, err := access.RoleByCode(model.RoleMasterAdmin)
	if err != nil {
		logger.Warn().Err(err).Msg("MASTER_ADMIN role missing, admin user not created")
		return
	}

	admin := &model.User{
		Email:    defaultAdminEmail,
		FullName: "Master Administrator",
		RoleID:   &master.ID,
		IsActive: true,
	}
	admin.Author("system")
	if err := admin.SetPassword(defaultAdminPassword); err != nil {
		logger.Warn().Err(err).Msg("Failed to hash admin password")
		return
	}
	if err := users.Create(admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
		return
	}
	logger.Warn().Str("email", defaultAdminEmail).Msg("Admin user created with the default password, change it now")
}
