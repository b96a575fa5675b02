package handler

import (
	"errors"
	"os"
	"path"
	"strings"

	"go-inventory-odoo/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// ImageHandler serves files from the image store.
type ImageHandler struct {
	store storage.ImageStore
}

func NewImageHandler(store storage.ImageStore) *ImageHandler {
	return &ImageHandler{store: store}
}

// Get serves GET /images/<key>, e.g. /images/products/odoo_product_42_<hash>.png
func (h *ImageHandler) Get(c *fiber.Ctx) error {
	key := c.Params("*")

	data, err := h.store.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) || errors.Is(err, os.ErrNotExist) {
			return c.Status(404).JSON(fiber.Map{"error": "Image not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read image"})
	}

	if ext := strings.TrimPrefix(path.Ext(key), "."); ext != "" {
		c.Type(ext)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(data)
}
