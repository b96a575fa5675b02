package handler

import (
	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// Inventory reports stock on hand and its value.
// Query params: category_id, status, stock_status (low|out)
func (h *ReportHandler) Inventory(c *fiber.Ctx) error {
	categoryID, err := queryUUID(c, "category_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid category ID"})
	}

	stockStatus := service.StockStatus(c.Query("stock_status"))
	switch stockStatus {
	case "", service.StockLow, service.StockOut:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "stock_status must be low or out"})
	}

	report, err := h.service.Inventory(service.InventoryReportFilter{
		CategoryID:  categoryID,
		Status:      model.ProductStatus(c.Query("status")),
		StockStatus: stockStatus,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Transactions reports movements with per-type totals.
// Query params: product_id, type, date_from, date_to
func (h *ReportHandler) Transactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	report, err := h.service.Transactions(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Sales reports daily, per-category and top-product sales.
// Query params: date_from, date_to (default last 30 days)
func (h *ReportHandler) Sales(c *fiber.Ctx) error {
	from, err := queryDate(c, "date_from")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date_from, use YYYY-MM-DD"})
	}
	to, err := queryDate(c, "date_to")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date_to, use YYYY-MM-DD"})
	}
	if from != nil && to != nil && to.Before(*from) {
		return c.Status(400).JSON(fiber.Map{"error": "date_to is before date_from"})
	}

	report, err := h.service.Sales(from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
