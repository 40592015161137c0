package routes

import (
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/anjiri1684/field_booking/middleware"
	"github.com/anjiri1684/field_booking/websocket"
	"github.com/gofiber/fiber/v2"
)

// Setup mounts every route group under /api/v1.
func Setup(app *fiber.App, h *handlers.Handler, hub *websocket.Hub, jwtSecret string) {
	api := app.Group("/api/v1")
	auth := middleware.Protected(jwtSecret)

	PublicRoutes(api, h)
	AuthRoutes(api, h)
	ProfileRoutes(api, h, auth)
	BookingRoutes(api, h, auth)
	PaymentRoutes(api, h, auth)
	LoyaltyRoutes(api, h, auth)
	MessagingRoutes(api, h, hub, auth)
	UploadRoutes(api, h, auth)
	AdminRoutes(api, h, auth)
}
