package handlers

import (
	"github.com/anjiri1684/field_booking/exports"
	"github.com/anjiri1684/field_booking/middleware"
	"github.com/anjiri1684/field_booking/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	BookingID     string          `json:"booking_id" validate:"required"`
	MethodID      uint            `json:"method_id" validate:"required,gt=0"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID *string         `json:"transaction_id" validate:"omitempty,max=100"`
}

type VerifyPaymentRequest struct {
	StatusID int     `json:"status_id" validate:"required,oneof=2 3"`
	Notes    *string `json:"notes"`
}

func (h *Handler) CreatePayment(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Payments.Create(c.UserContext(), middleware.CurrentPrincipal(c), services.CreatePaymentInput{
		BookingID:     req.BookingID,
		MethodID:      req.MethodID,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return err
	}
	return created(c, "Payment created successfully", res)
}

func (h *Handler) GetPayment(c *fiber.Ctx) error {
	p, err := h.svc.Payments.Get(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("paymentId"))
	if err != nil {
		return err
	}
	return ok(c, "Payment retrieved successfully", p)
}

func (h *Handler) ListPaymentMethods(c *fiber.Ctx) error {
	methods, err := h.svc.Payments.ListMethods(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "Payment methods retrieved successfully", methods)
}

func (h *Handler) AdminGetPayments(c *fiber.Ctx) error {
	from, err := optionalDate(c, "from_date")
	if err != nil {
		return err
	}
	to, err := optionalDate(c, "to_date")
	if err != nil {
		return err
	}
	rows, meta, err := h.svc.Payments.ListAll(c.UserContext(), services.PaymentFilter{Status: c.Query("status"), From: from, To: to}, pageOf(c))
	if err != nil {
		return err
	}
	return paginated(c, "Payments retrieved successfully", rows, meta)
}

func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Payments.Verify(c.UserContext(), c.Params("paymentId"), req.StatusID, req.Notes)
	if err != nil {
		return err
	}
	return ok(c, "Payment verified successfully", res)
}

func (h *Handler) PaymentReport(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	rep, err := h.svc.Reports.PaymentReport(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return h.report(c, "payments", "Payment report generated successfully", rep, rep.Period, func() exports.Table {
		return exports.PaymentTable(rep)
	})
}
