package routes

import (
	"github.com/anjiri1684/field_booking/handlers"
	"github.com/anjiri1684/field_booking/websocket"
	"github.com/gofiber/fiber/v2"
)

func MessagingRoutes(api fiber.Router, h *handlers.Handler, hub *websocket.Hub, auth fiber.Handler) {
	notifications := api.Group("/notifications", auth)
	notifications.Get("", h.ListNotifications)
	notifications.Put("/read-all", h.MarkNotificationRead)
	notifications.Put("/:notificationId/read", h.MarkNotificationRead)

	api.Use("/ws", websocket.Upgrade, auth)
	api.Get("/ws/notifications", hub.Handler())
}
