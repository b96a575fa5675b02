package handler

import (
	"errors"
	"strconv"
	"time"

	"go-inventory-odoo/internal/erpsync"
	"go-inventory-odoo/internal/middleware"
	"go-inventory-odoo/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// actorFrom reads the user set by middleware.RequireAuth.
func actorFrom(c *fiber.Ctx) service.Actor {
	actor := service.Actor{ID: "system", Name: "Unknown"}
	if id, ok := c.Locals(middleware.LocalUserID).(string); ok {
		actor.ID = id
	}
	if name, ok := c.Locals(middleware.LocalUserName).(string); ok {
		actor.Name = name
	}
	if email, ok := c.Locals(middleware.LocalUserEmail).(string); ok {
		actor.Email = email
	}
	return actor
}

// errorStatus maps service and sync errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrTransactionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrDuplicateSKU),
		errors.Is(err, service.ErrProductInUse),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrProductNotLinked):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrRemoteWrite),
		errors.Is(err, erpsync.ErrFetchFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// queryDate parses a YYYY-MM-DD query parameter in local time.
func queryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryPositiveInt(c *fiber.Ctx, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
