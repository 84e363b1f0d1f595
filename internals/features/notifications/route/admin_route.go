package route

import (
	outboxCtrl "absensi_bot/internals/features/notifications/controller"
	"absensi_bot/internals/features/notifications/outbox"

	"github.com/gofiber/fiber/v2"
)

func OutboxAdminRoutes(r fiber.Router, n *outbox.Notifier, guards ...fiber.Handler) {
	ctrl := outboxCtrl.NewOutboxController(n)

	g := r.Group("/outbox")
	g.Get("/", ctrl.List)
	g.Post("/drain", append(guards, ctrl.Drain)...)
}
