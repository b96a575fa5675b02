package handler

import (
	"go-inventory-odoo/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SyncHandler exposes the manual Odoo pulls and image maintenance.
type SyncHandler struct {
	service service.SyncService
}

func NewSyncHandler(s service.SyncService) *SyncHandler {
	return &SyncHandler{service: s}
}

// SyncProducts pulls the Odoo catalog.
// POST /api/v1/products/sync
func (h *SyncHandler) SyncProducts(c *fiber.Ctx) error {
	result, err := h.service.SyncProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Products synced from Odoo", "data": result})
}

// SyncTransactions pulls completed stock moves.
// POST /api/v1/transactions/sync?days=30
func (h *SyncHandler) SyncTransactions(c *fiber.Ctx) error {
	days := queryPositiveInt(c, "days", 0)

	result, err := h.service.SyncTransactions(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transactions synced from Odoo", "data": result})
}

// CleanImages deletes stored images no product references.
// POST /api/v1/maintenance/images/clean
func (h *SyncHandler) CleanImages(c *fiber.Ctx) error {
	deleted, err := h.service.CleanImages(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Orphaned images cleaned", "deleted": deleted, "count": len(deleted)})
}
