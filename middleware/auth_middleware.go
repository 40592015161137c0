package middleware

import (
	"strings"

	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

// Protected verifies the bearer token. Browsers cannot set headers on a
// websocket handshake, so the token is also read from ?token=. jwtware only
// defaults AuthScheme when TokenLookup is empty, so it is set explicitly.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		SigningMethod:  jwtware.HS256,
		TokenLookup:    "header:Authorization,query:token",
		AuthScheme:     "Bearer",
		ErrorHandler:   jwtError,
		SuccessHandler: setPrincipal,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "Missing or malformed JWT") {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "code": "AUTH_ERROR", "message": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "code": "AUTH_ERROR", "message": "Invalid or expired JWT"})
}

// setPrincipal copies the token claims into locals so handlers and the
// websocket upgrade do not have to touch the token again.
func setPrincipal(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return jwtError(c, jwt.ErrTokenMalformed)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwtError(c, jwt.ErrTokenMalformed)
	}
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return jwtError(c, jwt.ErrTokenMalformed)
	}
	c.Locals("user_id", userID)
	c.Locals("role", role)
	return c.Next()
}

// CurrentPrincipal returns the caller set by Protected.
func CurrentPrincipal(c *fiber.Ctx) services.Principal {
	id, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	return services.Principal{ID: id, Role: role}
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentPrincipal(c).IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error", "code": "FORBIDDEN", "message": "Forbidden: Admin access required",
			})
		}
		return c.Next()
	}
}

func SuperAdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentPrincipal(c).Role != models.RoleSuperAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error", "code": "FORBIDDEN", "message": "Forbidden: Super admin access required",
			})
		}
		return c.Next()
	}
}
