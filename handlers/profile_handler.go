package handlers

import (
	"github.com/anjiri1684/field_booking/middleware"
	"github.com/anjiri1684/field_booking/services"
	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Password    *string `json:"password" validate:"omitempty,min=6"`
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	user, err := h.svc.Users.Get(c.UserContext(), middleware.CurrentPrincipal(c).ID)
	if err != nil {
		return err
	}
	return ok(c, "Profile retrieved successfully", user)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Users.UpdateProfile(c.UserContext(), middleware.CurrentPrincipal(c).ID, services.ProfileUpdate{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}
	return ok(c, "Profile updated successfully", user)
}
