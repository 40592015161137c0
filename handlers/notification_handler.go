package handlers

import (
	"github.com/anjiri1684/field_booking/middleware"
	"github.com/gofiber/fiber/v2"
)

type SendNotificationRequest struct {
	UserID      *string `json:"user_id"`
	Title       string  `json:"title" validate:"required,max=100"`
	Message     string  `json:"message" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=system booking payment promotion"`
	ReferenceID *string `json:"reference_id" validate:"omitempty,max=50"`
}

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	unread := optionalBool(c, "unread")
	rows, meta, err := h.svc.Notifications.ListForUser(c.UserContext(), middleware.CurrentPrincipal(c).ID, unread != nil && *unread, pageOf(c))
	if err != nil {
		return err
	}
	return paginated(c, "Notifications retrieved successfully", rows, meta)
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	n, err := h.svc.Notifications.MarkAsRead(c.UserContext(), middleware.CurrentPrincipal(c).ID, c.Params("notificationId"))
	if err != nil {
		return err
	}
	return ok(c, "Notifications marked as read", fiber.Map{"updated": n})
}

func (h *Handler) SendNotification(c *fiber.Ctx) error {
	var req SendNotificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.UserID != nil && *req.UserID == "" {
		req.UserID = nil
	}
	n, err := h.svc.Notifications.Notify(c.UserContext(), req.UserID, req.Title, req.Message, req.Type, req.ReferenceID)
	if err != nil {
		return err
	}
	return created(c, "Notification sent successfully", fiber.Map{"recipients": n})
}
