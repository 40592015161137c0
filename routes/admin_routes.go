package routes

import (
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/anjiri1684/field_booking/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	admin := api.Group("/admin", auth, middleware.AdminRequired())

	fields := admin.Group("/fields")
	fields.Post("", h.CreateField)
	fields.Put("/:fieldId", h.UpdateField)
	fields.Delete("/:fieldId", h.DeleteField)
	fields.Post("/:fieldId/images", h.AddFieldImages)

	admin.Get("/bookings", h.AdminGetAllBookings)
	admin.Put("/bookings/:bookingId/status", h.UpdateBookingStatus)

	admin.Get("/payments", h.AdminGetPayments)
	admin.Put("/payments/:paymentId/verify", h.VerifyPayment)

	programs := admin.Group("/loyalty/programs")
	programs.Get("", h.ListPrograms)
	programs.Post("", h.CreateProgram)
	programs.Put("/:programId", h.UpdateProgram)
	programs.Delete("/:programId", h.DeleteProgram)

	admin.Post("/notifications/send", h.SendNotification)

	reports := admin.Group("/reports")
	reports.Get("/revenue", h.RevenueReport)
	reports.Get("/bookings", h.BookingReport)
	reports.Get("/payments", h.PaymentReport)
	reports.Get("/loyalty", h.LoyaltyReport)

	super := api.Group("/super-admin", auth, middleware.SuperAdminRequired())
	super.Get("/admins", h.ListAdmins)
	super.Post("/admins", h.CreateAdmin)
	super.Put("/admins/:userId", h.UpdateAdmin)
	super.Delete("/admins/:userId", h.DeleteAdmin)
	super.Get("/system-statistics", h.SystemStatistics)
}
