package middleware

import (
	"errors"
	"strings"

	"go-inventory-odoo/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID     = "user_id"
	LocalUserEmail  = "user_email"
	LocalUserName   = "user_name"
	LocalPrivileges = "user_privileges"
)

// SessionValidator resolves a bearer token to the current session.
type SessionValidator interface {
	ValidateToken(tokenString string) (*service.Session, error)
}

// RequireAuth rejects requests without a live session and exposes the user
// through the Local* keys. Privileges are read from the database on every
// request, so a revoked grant applies before the token expires.
func RequireAuth(sessions SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		session, err := sessions.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": unauthorizedMessage(err)})
		}

		c.Locals(LocalUserID, session.User.ID.String())
		c.Locals(LocalUserEmail, session.User.Email)
		c.Locals(LocalUserName, session.User.FullName)
		c.Locals(LocalPrivileges, session.Privileges)
		return c.Next()
	}
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrSessionReplaced),
		errors.Is(err, service.ErrUserInactive):
		return err.Error()
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found"
	default:
		return "Invalid or expired token"
	}
}

// RequirePrivilege admits users holding the privilege.
func RequirePrivilege(privilege string) fiber.Handler {
	return RequireAnyPrivilege(privilege)
}

// RequireAnyPrivilege admits users holding at least one of the privileges.
func RequireAnyPrivilege(required ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		held, ok := c.Locals(LocalPrivileges).([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, want := range required {
			for _, have := range held {
				if have == want {
					return c.Next()
				}
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(required, ", ") + " privileges",
		})
	}
}
