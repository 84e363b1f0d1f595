// file: internals/route/index.go
package routes

import (
	"time"

	"absensi_bot/internals/configs"
	"absensi_bot/internals/constants"
	"absensi_bot/internals/features/bot"
	"absensi_bot/internals/features/notifications/outbox"
	"absensi_bot/internals/middlewares"
	"absensi_bot/internals/middlewares/auth"
	routeDetails "absensi_bot/internals/route/details"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	Config     *configs.Config
	DB         *gorm.DB // nil = tanpa DB relasional
	Notifier   *outbox.Notifier
	Attendance routeDetails.AttendanceDeps
	Runner     *bot.Runner // nil = long polling
	StartedAt  time.Time
	Log        *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	log := d.Log.Named("routes")
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}

	// ===================== BASE =====================
	BaseRoutes(app, d)

	// ===================== TELEGRAM WEBHOOK =====================
	if d.Runner != nil {
		log.Info("Setting up Telegram webhook route...", zap.String("path", bot.WebhookPath))
		routeDetails.TelegramWebhookRoutes(app, d.Runner)
	}

	// ===================== ADMIN =====================
	log.Info("Setting up ADMIN group (RateLimit + CORS + JWT)...")
	admin := app.Group("/api/a",
		middlewares.CorsMiddleware(d.Config.CORSOrigins),
		middlewares.AdminRateLimiter(),
		auth.AdminJWT(auth.AdminJWTOptions{
			Secret:  d.Config.AdminJWTSecret,
			IsAdmin: d.Config.IsAdmin,
			Log:     d.Log,
		}),
	)
	writeGuard := auth.OnlyRoles(constants.RoleErrorAdmin("ubah data"), constants.AdminOnly...)

	// ===================== MOUNT ROUTES =====================
	log.Info("Mounting Attendance routes...")
	routeDetails.AttendanceAdminRoutes(admin, d.Attendance, writeGuard)

	log.Info("Mounting Notification routes...")
	routeDetails.NotificationAdminRoutes(admin, d.Notifier, writeGuard)
}
