package routes

import (
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/anjiri1684/field_booking/middleware"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	uploads := api.Group("/uploads", auth, middleware.AdminRequired())
	uploads.Get("/signature", h.GenerateUploadSignature)
}
