package details

import (
	"absensi_bot/internals/features/bot"
	"absensi_bot/internals/features/notifications/outbox"
	outboxRoute "absensi_bot/internals/features/notifications/route"
	"absensi_bot/internals/middlewares"

	"github.com/gofiber/fiber/v2"
)

func NotificationAdminRoutes(admin fiber.Router, n *outbox.Notifier, writeGuard fiber.Handler) {
	outboxRoute.OutboxAdminRoutes(admin, n, writeGuard)
}

// TelegramWebhookRoutes: hanya dipasang di mode webhook.
func TelegramWebhookRoutes(app *fiber.App, r *bot.Runner) {
	app.Post(bot.WebhookPath, middlewares.WebhookRateLimiter(), r.WebhookHandler)
}
