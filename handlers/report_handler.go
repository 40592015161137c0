package handlers

import (
	"fmt"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/exports"
	"github.com/anjiri1684/field_booking/services"
	"github.com/gofiber/fiber/v2"
)

// report writes data as JSON, or as a CSV or PDF attachment when ?format=
// asks for one. table is only built for the file formats.
func (h *Handler) report(c *fiber.Ctx, name, message string, data any, period services.Period, table func() exports.Table) error {
	filename := fmt.Sprintf("%s_%s_to_%s", name, period.FromDate, period.ToDate)
	switch c.Query("format", "json") {
	case "json":
		return ok(c, message, data)
	case "csv":
		b, err := table().CSV()
		if err != nil {
			return apperrors.Internal("Failed to write CSV", err)
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename+".csv"))
		return c.Send(b)
	case "pdf":
		b, err := table().PDF(c.UserContext())
		if err != nil {
			return apperrors.Internal("Failed to render PDF", err)
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
		return c.Send(b)
	default:
		return apperrors.Validation("Invalid format parameter")
	}
}

func (h *Handler) RevenueReport(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	rep, err := h.svc.Reports.RevenueReport(c.UserContext(), from, to, c.Query("group_by", services.GroupByDay))
	if err != nil {
		return err
	}
	return h.report(c, "revenue", "Revenue report generated successfully", rep, rep.Period, func() exports.Table {
		return exports.RevenueTable(rep)
	})
}

func (h *Handler) SystemStatistics(c *fiber.Ctx) error {
	stats, err := h.svc.Reports.SystemStatistics(c.UserContext(), c.Query("period", "monthly"))
	if err != nil {
		return err
	}
	return ok(c, "System statistics generated successfully", stats)
}
