package handler

import (
	"errors"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"
	"go-inventory-odoo/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// GetProducts lists products.
// Query params: category_id, status, search
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	categoryID, err := queryUUID(c, "category_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid category ID"})
	}

	products, err := h.service.GetAllProducts(repository.ProductFilter{
		CategoryID: categoryID,
		Status:     model.ProductStatus(c.Query("status")),
		Search:     c.Query("search"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.service.GetProductByID(productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.CreateProduct(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), productID, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	if err := h.service.DeleteProduct(c.UserContext(), productID, actorFrom(c)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *InventoryHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	tx, err := h.service.RecordTransaction(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Transaction recorded", "data": tx})
}

// GetTransactions lists transactions, newest first.
// Query params: product_id, type, date_from, date_to (YYYY-MM-DD), limit
func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	filter.Limit = queryPositiveInt(c, "limit", 0)

	transactions, err := h.service.GetAllTransactions(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	txID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	tx, err := h.service.GetTransactionByID(txID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tx)
}

func (h *InventoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

func transactionFilter(c *fiber.Ctx) (repository.TransactionFilter, error) {
	var filter repository.TransactionFilter

	productID, err := queryUUID(c, "product_id")
	if err != nil {
		return filter, errors.New("Invalid product ID")
	}
	from, err := queryDate(c, "date_from")
	if err != nil {
		return filter, errors.New("Invalid date_from, use YYYY-MM-DD")
	}
	to, err := queryDate(c, "date_to")
	if err != nil {
		return filter, errors.New("Invalid date_to, use YYYY-MM-DD")
	}

	filter.ProductID = productID
	filter.Type = model.TransactionType(c.Query("type"))
	filter.From = from
	filter.To = to
	return filter, nil
}
