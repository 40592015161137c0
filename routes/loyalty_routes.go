package routes

import (
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

func LoyaltyRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	loyalty := api.Group("/loyalty", auth)
	loyalty.Get("/points", h.GetUserPoints)
	loyalty.Get("/programs", h.ListPrograms)
	loyalty.Post("/redeem", h.RedeemPoints)
	loyalty.Get("/redemptions", h.RedemptionHistory)
}
