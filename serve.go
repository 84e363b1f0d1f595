package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	absensiService "absensi_bot/internals/features/attendance/absensi/service"
	"absensi_bot/internals/features/attendance/jadwal"
	rekapService "absensi_bot/internals/features/attendance/rekap/service"
	"absensi_bot/internals/features/attendance/sheets"
	"absensi_bot/internals/features/bot"
	"absensi_bot/internals/features/notifications/outbox"
	memberModel "absensi_bot/internals/features/users/members/model"
	memberService "absensi_bot/internals/features/users/members/service"
	helper "absensi_bot/internals/helpers"
	"absensi_bot/internals/middlewares"
	"absensi_bot/internals/middlewares/logger"
	routes "absensi_bot/internals/route"
	routeDetails "absensi_bot/internals/route/details"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func runServe(_ *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}
	defer s.close()
	log := s.log
	startedAt := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 🔌 DB + Telegram
	if err := s.connectDB(); err != nil {
		return err
	}
	if err := s.connectTelegram(); err != nil {
		return err
	}

	// 📬 Outbox
	if err := s.queue.Load(); err != nil {
		log.Error("❌ Gagal memuat outbox, mulai dari antrean kosong", zap.Error(err))
	}
	notifier := outbox.NewNotifier(s.tg, s.queue, s.exec, log)

	// 📄 Sheet + cache
	cache := sheets.NewRecordCache(s.sheetStore(ctx), s.cfg.CacheTTL, log)

	// ⏰ Jadwal per unit
	registry := jadwal.NewRegistry()
	directory := memberService.NewDirectory(log)
	var repo *absensiService.Repository
	if s.db != nil {
		registry.Register(memberModel.UnitDaman, jadwal.NewDBCatalog(s.db, memberModel.UnitDaman))
		directory = memberService.NewDefaultDirectory(s.db, log)
		repo = absensiService.NewRepository(s.db)
	}
	registry.Register(memberModel.UnitSDI, jadwal.SDICatalog())

	deps := absensiService.Deps{
		Members:  directory,
		Shifts:   registry,
		Photos:   s.tg,
		Records:  cache,
		Location: s.loc,
		IsAdmin:  s.cfg.IsAdmin,
		Log:      log,
	}
	if repo != nil {
		deps.Repo = repo
	}
	svc := absensiService.New(deps)

	// 📊 Rekap + scheduler
	builder := rekapService.NewBuilder(cache, s.loc)
	scheduler := rekapService.NewScheduler(rekapService.SchedulerDeps{
		Builder:   builder,
		Notifier:  notifier,
		Animator:  s.tg,
		Retry:     s.exec,
		GroupID:   s.cfg.GroupID,
		Location:  s.loc,
		DrainSpec: s.cfg.OutboxDrainSchedule,
		Log:       log,
	})
	if err := scheduler.Register(); err != nil {
		return err
	}
	scheduler.Start()

	// 🤖 Bot
	handler := bot.NewHandler(bot.Deps{
		Attendance: svc,
		Reports:    builder,
		Replies:    notifier,
		Keywords:   registry,
		Pending:    s.queue.Size,
		GroupID:    s.cfg.GroupID,
		IsAdmin:    s.cfg.IsAdmin,
		Version:    version,
		StartedAt:  startedAt,
		Log:        log,
	})
	runner := bot.NewRunner(s.bot, handler, bot.RunnerOptions{WebhookSecret: s.cfg.BotWebhookSecret}, log)
	runner.Start(context.WithoutCancel(ctx)) // update yang sedang diproses tetap selesai saat shutdown

	webhook := s.cfg.BotWebhookURL != ""
	var webhookRunner *bot.Runner
	if webhook {
		webhookRunner = runner
	}

	// 🌐 HTTP
	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ProxyHeader:           fiber.HeaderXForwardedFor,
		ErrorHandler:          helper.ErrorHandler(log),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})
	app.Use(middlewares.RecoveryMiddleware(log))
	app.Use(requestID())
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(logger.LoggerMiddleware(log, bot.WebhookPath, "/health", "/metrics"))

	routes.SetupRoutes(app, routes.Deps{
		Config:   s.cfg,
		DB:       s.db,
		Notifier: notifier,
		Attendance: routeDetails.AttendanceDeps{
			Service:   svc,
			Repo:      repo,
			Builder:   builder,
			Scheduler: scheduler,
		},
		Runner:    webhookRunner,
		StartedAt: startedAt,
		Log:       log,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("✅ Listening", zap.String("port", s.cfg.Port))
		serveErr <- app.Listen("0.0.0.0:" + s.cfg.Port)
	}()

	if webhook {
		if err := runner.RegisterWebhook(s.cfg.BotWebhookURL); err != nil {
			return err
		}
	} else if err := runner.StartPolling(ctx); err != nil {
		return err
	}
	log.Info("📌 Bot absensi aktif", zap.String("version", version), zap.Bool("webhook", webhook))

	select {
	case <-ctx.Done():
		log.Info("🛑 Sinyal berhenti diterima, shutdown...")
	case err := <-serveErr:
		if err != nil {
			log.Error("❌ Server error", zap.Error(err))
		}
	}

	// graceful shutdown: cron → HTTP → bot → outbox → DB (defer)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("shutdown fiber", zap.Error(err))
	}
	if err := runner.Stop(shutdownCtx); err != nil {
		log.Warn("shutdown bot runner", zap.Error(err))
	}
	if err := s.queue.Save(); err != nil {
		log.Error("❌ Gagal menyimpan outbox", zap.Error(err))
	}
	log.Info("👋 Bot berhenti", zap.Int("outbox_pending", s.queue.Size()))
	return nil
}

// requestID: X-Request-ID + locals "reqid".
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		return c.Next()
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
