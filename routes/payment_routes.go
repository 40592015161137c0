package routes

import (
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	payments := api.Group("/payments", auth)
	payments.Post("", h.CreatePayment)
	payments.Get("/methods", h.ListPaymentMethods)
	payments.Get("/:paymentId", h.GetPayment)
}
