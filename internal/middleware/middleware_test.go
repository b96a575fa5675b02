package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/service"
	"go-inventory-odoo/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPrivileges(privileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, "u-1")
		c.Locals(LocalPrivileges, privileges)
		return c.Next()
	}
}

func ok(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) }

func status(t *testing.T, app *fiber.App, target string) (int, http.Header) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, target, nil))
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode, resp.Header
}

func TestRequirePrivilege(t *testing.T) {
	testCases := []struct {
		name       string
		granted    []string
		required   []string
		wantStatus int
	}{
		{"Exact privilege", []string{"product:sync"}, []string{"product:sync"}, http.StatusNoContent},
		{"Any of several", []string{"report:view"}, []string{"dashboard:view", "report:view"}, http.StatusNoContent},
		{"Missing privilege", []string{"product:view"}, []string{"product:delete"}, http.StatusForbidden},
		{"No privileges", nil, []string{"product:view"}, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/", withPrivileges(tc.granted...), RequireAnyPrivilege(tc.required...), ok)

			got, _ := status(t, app, "/")
			assert.Equal(t, tc.wantStatus, got)
		})
	}
}

func TestRequirePrivilege_NotAuthenticated(t *testing.T) {
	app := fiber.New()
	app.Post("/", RequirePrivilege("product:view"), ok)

	got, _ := status(t, app, "/")
	assert.Equal(t, http.StatusForbidden, got)
}

func TestRateLimit(t *testing.T) {
	limit, err := RateLimit("2-M", zerolog.Nop())
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/sync", withPrivileges(), limit, ok)

	code, header := status(t, app, "/sync")
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "2", header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", header.Get("X-RateLimit-Remaining"))

	code, _ = status(t, app, "/sync")
	assert.Equal(t, http.StatusNoContent, code)

	code, header = status(t, app, "/sync")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "0", header.Get("X-RateLimit-Remaining"))
}

func TestRateLimit_BadFormat(t *testing.T) {
	_, err := RateLimit("lots", zerolog.Nop())
	assert.Error(t, err)
}

type stubSessions struct {
	token   string
	session *service.Session
	err     error
}

func (s stubSessions) ValidateToken(token string) (*service.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, jwt.ErrInvalidToken
	}
	return s.session, nil
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()
	live := stubSessions{token: "good", session: &service.Session{
		User:       model.UserResponse{ID: userID, Email: "ada@example.com", FullName: "Ada"},
		Privileges: []string{model.PrivProductView},
	}}

	testCases := []struct {
		name       string
		sessions   stubSessions
		header     string
		wantStatus int
		wantError  string
	}{
		{"Live session", live, "Bearer good", http.StatusOK, ""},
		{"Scheme is case-insensitive", live, "bearer good", http.StatusOK, ""},
		{"Missing header", live, "", http.StatusUnauthorized, "Missing authorization token"},
		{"Wrong scheme", live, "Basic good", http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>"},
		{"Bad token", live, "Bearer bad", http.StatusUnauthorized, "Invalid or expired token"},
		{"Replaced session", stubSessions{err: service.ErrSessionReplaced}, "Bearer good", http.StatusUnauthorized, service.ErrSessionReplaced.Error()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", RequireAuth(tc.sessions), RequirePrivilege(model.PrivProductView), func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{"user_id": c.Locals(LocalUserID), "name": c.Locals(LocalUserName)})
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, body["error"])
				return
			}
			assert.Equal(t, userID.String(), body["user_id"])
			assert.Equal(t, "Ada", body["name"])
		})
	}
}
