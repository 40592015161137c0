package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/field_booking/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

func sign(t *testing.T, userID, role string, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newApp() *fiber.App {
	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		p := CurrentPrincipal(c)
		return c.JSON(fiber.Map{"id": p.ID, "role": p.Role})
	}
	app.Get("/me", Protected(secret), whoami)
	app.Get("/admin", Protected(secret), AdminRequired(), whoami)
	app.Get("/super", Protected(secret), SuperAdminRequired(), whoami)
	return app
}

func status(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestProtected(t *testing.T) {
	app := newApp()

	assert.Equal(t, fiber.StatusBadRequest, status(t, app, "/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/me", "not-a-token"))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/me", sign(t, "user-1", models.RoleCustomer, -time.Minute)))
	assert.Equal(t, fiber.StatusOK, status(t, app, "/me", sign(t, "user-1", models.RoleCustomer, time.Hour)))

	// The websocket handshake passes the token in the query string.
	assert.Equal(t, fiber.StatusOK, status(t, app, "/me?token="+sign(t, "user-1", models.RoleCustomer, time.Hour), ""))
}

func TestRoleGuards(t *testing.T) {
	app := newApp()
	customer := sign(t, "user-1", models.RoleCustomer, time.Hour)
	admin := sign(t, "user-2", models.RoleAdmin, time.Hour)
	super := sign(t, "user-3", models.RoleSuperAdmin, time.Hour)

	assert.Equal(t, fiber.StatusForbidden, status(t, app, "/admin", customer))
	assert.Equal(t, fiber.StatusOK, status(t, app, "/admin", admin))
	assert.Equal(t, fiber.StatusOK, status(t, app, "/admin", super))

	assert.Equal(t, fiber.StatusForbidden, status(t, app, "/super", admin))
	assert.Equal(t, fiber.StatusOK, status(t, app, "/super", super))
}

func TestProtectedHeaderScheme(t *testing.T) {
	app := newApp()
	token := sign(t, "user-1", models.RoleCustomer, time.Hour)

	for name, tc := range map[string]struct {
		header string
		want   int
	}{
		"bearer scheme":  {"Bearer " + token, fiber.StatusOK},
		"missing scheme": {token, fiber.StatusBadRequest},
		"wrong scheme":   {"Basic " + token, fiber.StatusBadRequest},
		"scheme only":    {"Bearer ", fiber.StatusBadRequest},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			req.Header.Set("Authorization", tc.header)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
