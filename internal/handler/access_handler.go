package handler

import (
	"go-inventory-odoo/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// AccessHandler lists the seeded roles and privileges for the admin UI.
type AccessHandler struct {
	access repository.AccessRepository
}

func NewAccessHandler(access repository.AccessRepository) *AccessHandler {
	return &AccessHandler{access: access}
}

// GetRoles returns all roles with their privileges
// GET /api/v1/roles
func (h *AccessHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.access.Roles()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch roles"})
	}
	return c.JSON(roles)
}

// GetPrivileges returns every privilege code
// GET /api/v1/privileges
func (h *AccessHandler) GetPrivileges(c *fiber.Ctx) error {
	privileges, err := h.access.Privileges()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch privileges"})
	}
	return c.JSON(privileges)
}
