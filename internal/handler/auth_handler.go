package handler

import (
	"errors"

	"go-inventory-odoo/internal/service"
	"go-inventory-odoo/pkg/jwt"
	"go-inventory-odoo/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,nefield=OldPassword"`
}

type ValidateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// bind parses the JSON body into req and validates it. On failure it has
// already written the 400 response and returns false.
func bind(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return false, c.Status(400).JSON(fiber.Map{"error": validator.Summary(errs), "details": errs})
	}
	return true, nil
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUserInactive):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrWrongPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionReplaced),
		errors.Is(err, jwt.ErrInvalidToken):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// Login issues a token and ends any other session of the user.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	response, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return c.Status(authStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(response)
}

// ResetPassword changes the password; the caller must log in again.
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if err := h.authService.ResetPassword(req.Email, req.OldPassword, req.NewPassword); err != nil {
		return c.Status(authStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully, please log in again"})
}

// ValidateToken reports the session a token belongs to.
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	session, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		return c.Status(authStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(session)
}
