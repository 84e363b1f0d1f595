package routes

import (
	"context"
	"time"

	database "absensi_bot/internals/databases"
	"absensi_bot/internals/helpers/dbtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func BaseRoutes(app *fiber.App, d Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Bot Absensi Daman & SDI berjalan 🚀")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Disabled"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if d.DB != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			dbStatus = "Connected"
			if err := database.Ping(ctx, d.DB); err != nil {
				dbStatus = "Database connection error"
				serverStatus = "DOWN"
				httpStatus = fiber.StatusServiceUnavailable
			}
		}

		pending := 0
		if d.Notifier != nil {
			pending = d.Notifier.Queue().Size()
		}
		uptime := time.Since(d.StartedAt)

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"outbox_pending": pending,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(uptime.Seconds()),
			"uptime":         dbtime.FormatUptime(uptime),
		})
	})
}
