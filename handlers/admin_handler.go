package handlers

import (
	"github.com/anjiri1684/field_booking/services"
	"github.com/gofiber/fiber/v2"
)

type UpdateAdminRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Password    *string `json:"password" validate:"omitempty,min=6"`
	IsActive    *bool   `json:"is_active"`
}

func (h *Handler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.svc.Users.ListAdmins(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "Admins retrieved successfully", admins)
}

func (h *Handler) CreateAdmin(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	admin, err := h.svc.Users.CreateAdmin(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return created(c, "Admin created successfully", admin)
}

func (h *Handler) UpdateAdmin(c *fiber.Ctx) error {
	var req UpdateAdminRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	admin, err := h.svc.Users.UpdateAdmin(c.UserContext(), c.Params("userId"), services.ProfileUpdate{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return err
	}
	return ok(c, "Admin updated successfully", admin)
}

func (h *Handler) DeleteAdmin(c *fiber.Ctx) error {
	if err := h.svc.Users.DeleteAdmin(c.UserContext(), c.Params("userId")); err != nil {
		return err
	}
	return ok(c, "Admin deleted successfully", nil)
}
