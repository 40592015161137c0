package routes

import (
	"time"

	"github.com/anjiri1684/field_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(api fiber.Router, h *handlers.Handler) {
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	fields := api.Group("/fields")
	fields.Get("", h.ListFields)
	fields.Get("/:fieldId", h.GetField)
	fields.Get("/:fieldId/availability", h.CheckAvailability)
}
