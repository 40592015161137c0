package handlers

import (
	"github.com/anjiri1684/field_booking/services"
	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
}

func (r RegisterRequest) input() services.RegisterInput {
	return services.RegisterInput{
		Username:    r.Username,
		Email:       r.Email,
		Password:    r.Password,
		FullName:    r.FullName,
		PhoneNumber: r.PhoneNumber,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Users.Register(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return created(c, "User registered successfully", user)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ok(c, "Login successful", res)
}
