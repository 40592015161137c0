package routes

import (
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	booking := api.Group("/bookings", auth)
	booking.Post("", h.CreateBooking)
	booking.Get("/me", h.GetMyBookings)
	booking.Get("/:bookingId", h.GetBooking)
	booking.Post("/:bookingId/cancel", h.CancelBooking)
}
