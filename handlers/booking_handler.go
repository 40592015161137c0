package handlers

import (
	"github.com/anjiri1684/field_booking/exports"
	"github.com/anjiri1684/field_booking/middleware"
	"github.com/anjiri1684/field_booking/services"
	"github.com/gofiber/fiber/v2"
)

type CreateBookingRequest struct {
	FieldID   string  `json:"field_id" validate:"required"`
	Date      string  `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Notes     *string `json:"notes"`
}

type UpdateBookingStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	Notes  *string `json:"notes"`
}

func (h *Handler) bookingFilter(c *fiber.Ctx) (services.BookingFilter, error) {
	from, err := optionalDate(c, "from_date")
	if err != nil {
		return services.BookingFilter{}, err
	}
	to, err := optionalDate(c, "to_date")
	if err != nil {
		return services.BookingFilter{}, err
	}
	return services.BookingFilter{
		Status:  c.Query("status"),
		FieldID: c.Query("field_id"),
		UserID:  c.Query("user_id"),
		From:    from,
		To:      to,
	}, nil
}

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	var req CreateBookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Bookings.Create(c.UserContext(), middleware.CurrentPrincipal(c), services.CreateBookingInput{
		FieldID:   req.FieldID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return created(c, "Booking created successfully", res)
}

func (h *Handler) GetMyBookings(c *fiber.Ctx) error {
	filter, err := h.bookingFilter(c)
	if err != nil {
		return err
	}
	rows, meta, err := h.svc.Bookings.ListForUser(c.UserContext(), middleware.CurrentPrincipal(c).ID, filter, pageOf(c))
	if err != nil {
		return err
	}
	return paginated(c, "Bookings retrieved successfully", rows, meta)
}

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	b, err := h.svc.Bookings.Get(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("bookingId"))
	if err != nil {
		return err
	}
	return ok(c, "Booking retrieved successfully", b)
}

func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	res, err := h.svc.Bookings.Cancel(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("bookingId"))
	if err != nil {
		return err
	}
	return ok(c, "Booking cancelled successfully", res)
}

func (h *Handler) AdminGetAllBookings(c *fiber.Ctx) error {
	filter, err := h.bookingFilter(c)
	if err != nil {
		return err
	}
	rows, meta, err := h.svc.Bookings.ListAll(c.UserContext(), filter, pageOf(c))
	if err != nil {
		return err
	}
	return paginated(c, "Bookings retrieved successfully", rows, meta)
}

func (h *Handler) UpdateBookingStatus(c *fiber.Ctx) error {
	var req UpdateBookingStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Bookings.UpdateStatus(c.UserContext(), c.Params("bookingId"), req.Status, req.Notes)
	if err != nil {
		return err
	}
	return ok(c, "Booking status updated successfully", res)
}

func (h *Handler) BookingReport(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	var fieldID *string
	if id := c.Query("field_id"); id != "" {
		fieldID = &id
	}
	rep, err := h.svc.Bookings.Report(c.UserContext(), from, to, fieldID)
	if err != nil {
		return err
	}
	return h.report(c, "bookings", "Booking report generated successfully", rep, rep.Period, func() exports.Table {
		return exports.BookingTable(rep)
	})
}
