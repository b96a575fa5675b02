package handler

import (
	"go-inventory-odoo/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultMovementDays = 7
	maxMovementDays     = 90
)

// DashboardHandler serves the cached dashboard aggregates.
type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns totals, recent transactions, the 7-day sales chart
// and the top sellers.
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	overview, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard stats"})
	}
	return c.JSON(overview)
}

// GetStockMovement returns daily inbound and outbound quantities.
// GET /api/v1/dashboard/stock-movement?days=7 (capped at 90)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days := min(queryPositiveInt(c, "days", defaultMovementDays), maxMovementDays)

	movement, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stock movement"})
	}
	return c.JSON(fiber.Map{"period": days, "data": movement})
}
