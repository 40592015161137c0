package routes

import (
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	users := api.Group("/users", auth)
	users.Get("/profile", h.GetProfile)
	users.Put("/profile", h.UpdateProfile)
}
