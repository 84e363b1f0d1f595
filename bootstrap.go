package main

import (
	"context"
	"fmt"
	"time"

	"absensi_bot/internals/configs"
	database "absensi_bot/internals/databases"
	"absensi_bot/internals/features/attendance/sheets"
	"absensi_bot/internals/features/notifications/outbox"
	"absensi_bot/internals/features/notifications/telegram"
	"absensi_bot/internals/helpers/dbtime"
	"absensi_bot/internals/helpers/retry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stack: dependensi bersama semua subcommand.
type stack struct {
	cfg *configs.Config
	log *zap.Logger
	loc *time.Location

	db *gorm.DB // nil kalau DB_HOST kosong

	exec  *retry.Executor
	queue *outbox.Queue

	bot *tgbotapi.BotAPI
	tg  *telegram.Client
}

func loadStack() (*stack, error) {
	boot, err := configs.NewLogger("info", "console")
	if err != nil {
		return nil, err
	}
	configs.LoadEnv(boot)

	cfg, err := configs.Load()
	if err != nil {
		return nil, err
	}
	log, err := configs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	s := &stack{
		cfg:  cfg,
		log:  log,
		loc:  dbtime.LoadLocation(cfg.Timezone),
		exec: retry.NewExecutor(log),
	}
	s.queue = outbox.NewQueue(cfg.OutboxFile, s.exec, log)
	return s, nil
}

func (s *stack) connectDB() error {
	if !s.cfg.DB.Enabled() {
		s.log.Warn("⚠️ DB_HOST/DB_NAME kosong, penyimpanan relasional dimatikan")
		return nil
	}
	db, err := database.ConnectDB(s.cfg.DB, s.log)
	if err != nil {
		return err
	}
	database.TunePool(db, s.log)
	if s.cfg.DB.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		s.log.Info("🧱 AutoMigrate selesai")
	}
	s.db = db
	return nil
}

func (s *stack) connectTelegram() error {
	bot, err := telegram.NewBotAPI(s.cfg.BotToken, s.cfg.TelegramTimeout)
	if err != nil {
		return err
	}
	s.bot = bot
	s.tg = telegram.NewClient(bot, s.cfg.TelegramRate, s.log)
	s.log.Info("✅ Telegram bot siap", zap.String("username", bot.Self.UserName))
	return nil
}

// sheetStore: tanpa kredensial → DisabledStore (absen gagal dengan jelas, bukan diam).
func (s *stack) sheetStore(ctx context.Context) sheets.Store {
	if !s.cfg.SheetsEnabled() {
		s.log.Warn("⚠️ Google Sheets tidak dikonfigurasi, absen akan ditolak")
		return sheets.DisabledStore{}
	}
	store, err := sheets.NewGoogleStore(ctx, sheets.GoogleConfig{
		SpreadsheetID:   s.cfg.SheetsID,
		Tab:             s.cfg.SheetsTab,
		ClientEmail:     s.cfg.ServiceAccountMail,
		PrivateKey:      s.cfg.PrivateKey,
		CredentialsFile: s.cfg.CredentialsFile,
		Location:        s.loc,
	}, s.log)
	if err != nil {
		s.log.Error("❌ Gagal init Google Sheets", zap.Error(err))
		return sheets.DisabledStore{}
	}
	return store
}

func (s *stack) close() {
	if err := database.Close(s.db); err != nil {
		s.log.Warn("close db", zap.Error(err))
	}
	_ = s.log.Sync()
}
