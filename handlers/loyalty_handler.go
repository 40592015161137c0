package handlers

import (
	"time"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/exports"
	"github.com/anjiri1684/field_booking/middleware"
	"github.com/anjiri1684/field_booking/services"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/gofiber/fiber/v2"
)

type RedeemRequest struct {
	ProgramID  string `json:"program_id" validate:"required"`
	PointsUsed int    `json:"points_used" validate:"required,gt=0"`
}

type ProgramRequest struct {
	ProgramName    string  `json:"program_name" validate:"required,max=100"`
	Description    string  `json:"description" validate:"required"`
	PointsRequired int     `json:"points_required" validate:"required,gt=0"`
	RewardType     string  `json:"reward_type" validate:"required,oneof=discount free_booking merchandise"`
	RewardValue    string  `json:"reward_value" validate:"required,max=50"`
	StartDate      string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type ProgramUpdateRequest struct {
	ProgramName    *string `json:"program_name" validate:"omitempty,max=100"`
	Description    *string `json:"description"`
	PointsRequired *int    `json:"points_required" validate:"omitempty,gt=0"`
	RewardType     *string `json:"reward_type" validate:"omitempty,oneof=discount free_booking merchandise"`
	RewardValue    *string `json:"reward_value" validate:"omitempty,max=50"`
	IsActive       *bool   `json:"is_active"`
	StartDate      *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

func parseOptionalDate(s *string, name string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := utils.ParseDate(*s)
	if err != nil {
		return nil, apperrors.Validation("Invalid %s, expected YYYY-MM-DD", name)
	}
	return &d, nil
}

func (h *Handler) GetUserPoints(c *fiber.Ctx) error {
	pts, err := h.svc.Loyalty.GetUserPoints(c.UserContext(), middleware.CurrentPrincipal(c).ID)
	if err != nil {
		return err
	}
	return ok(c, "Loyalty points retrieved successfully", pts)
}

// ListPrograms shows customers the active programs; admins may pass
// ?all=true to include inactive ones.
func (h *Handler) ListPrograms(c *fiber.Ctx) error {
	activeOnly := true
	if all := optionalBool(c, "all"); all != nil && *all && middleware.CurrentPrincipal(c).IsAdmin() {
		activeOnly = false
	}
	programs, err := h.svc.Loyalty.ListPrograms(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	return ok(c, "Loyalty programs retrieved successfully", programs)
}

func (h *Handler) RedeemPoints(c *fiber.Ctx) error {
	var req RedeemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Loyalty.Redeem(c.UserContext(), middleware.CurrentPrincipal(c).ID, req.ProgramID, req.PointsUsed)
	if err != nil {
		return err
	}
	return created(c, "Points redeemed successfully", res)
}

func (h *Handler) RedemptionHistory(c *fiber.Ctx) error {
	rows, err := h.svc.Loyalty.RedemptionHistory(c.UserContext(), middleware.CurrentPrincipal(c).ID)
	if err != nil {
		return err
	}
	return ok(c, "Redemption history retrieved successfully", rows)
}

func (h *Handler) CreateProgram(c *fiber.Ctx) error {
	var req ProgramRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return apperrors.Validation("Invalid start_date, expected YYYY-MM-DD")
	}
	end, err := parseOptionalDate(req.EndDate, "end_date")
	if err != nil {
		return err
	}
	p, err := h.svc.Loyalty.CreateProgram(c.UserContext(), services.ProgramInput{
		ProgramName:    req.ProgramName,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		RewardType:     req.RewardType,
		RewardValue:    req.RewardValue,
		StartDate:      start,
		EndDate:        end,
	})
	if err != nil {
		return err
	}
	return created(c, "Loyalty program created successfully", p)
}

func (h *Handler) UpdateProgram(c *fiber.Ctx) error {
	var req ProgramUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	start, err := parseOptionalDate(req.StartDate, "start_date")
	if err != nil {
		return err
	}
	end, err := parseOptionalDate(req.EndDate, "end_date")
	if err != nil {
		return err
	}
	p, err := h.svc.Loyalty.UpdateProgram(c.UserContext(), c.Params("programId"), services.ProgramUpdate{
		ProgramName:    req.ProgramName,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		RewardType:     req.RewardType,
		RewardValue:    req.RewardValue,
		IsActive:       req.IsActive,
		StartDate:      start,
		EndDate:        end,
	})
	if err != nil {
		return err
	}
	return ok(c, "Loyalty program updated successfully", p)
}

func (h *Handler) DeleteProgram(c *fiber.Ctx) error {
	if err := h.svc.Loyalty.DeleteProgram(c.UserContext(), c.Params("programId")); err != nil {
		return err
	}
	return ok(c, "Loyalty program deleted successfully", nil)
}

func (h *Handler) LoyaltyReport(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	rep, err := h.svc.Loyalty.Report(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return h.report(c, "loyalty", "Loyalty report generated successfully", rep, rep.Period, func() exports.Table {
		return exports.LoyaltyTable(rep)
	})
}
