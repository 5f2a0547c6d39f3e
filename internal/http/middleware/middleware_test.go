package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIdentity(t *testing.T) {
	app := fiber.New()
	app.Use(Identity([]string{" boss "}))
	app.Get("/me", func(c *fiber.Ctx) error {
		who := CurrentIdentity(c)
		return c.JSON(fiber.Map{"user": who.UserID, "staff": who.Staff})
	})
	app.Get("/admin", RequireStaff(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name   string
		path   string
		user   string
		status int
		body   string
	}{
		{"anonymous", "/me", "", fiber.StatusUnauthorized, "UNAUTHENTICATED"},
		{"regular user", "/me", "u1", fiber.StatusOK, `"staff":false`},
		{"staff user", "/me", "boss", fiber.StatusOK, `"staff":true`},
		{"regular user on staff route", "/admin", "u1", fiber.StatusForbidden, "FORBIDDEN"},
		{"staff on staff route", "/admin", "boss", fiber.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.user != "" {
				req.Header.Set(UserIDHeader, tt.user)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := new(strings.Builder)
			_, _ = io.Copy(body, resp.Body)
			assert.Contains(t, body.String(), tt.body)
		})
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(localRequestID).(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDSize+1))
	resp, err = app.Test(req)
	require.NoError(t, err)
	generated := resp.Header.Get(RequestIDHeader)
	assert.Len(t, generated, 36)
}

func TestRecovery(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID(), Recovery(zap.NewNop()))
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS([]string{"https://app.example.com/"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	preflight := httptest.NewRequest(http.MethodOptions, "/", nil)
	preflight.Header.Set(fiber.HeaderOrigin, "https://app.example.com")
	resp, err := app.Test(preflight)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), UserIDHeader)

	foreign := httptest.NewRequest(http.MethodOptions, "/", nil)
	foreign.Header.Set(fiber.HeaderOrigin, "https://evil.example.com")
	resp, err = app.Test(foreign)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	plain.Header.Set(fiber.HeaderOrigin, "https://evil.example.com")
	resp, err = app.Test(plain)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}
