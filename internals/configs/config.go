package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"absensi_bot/internals/helpers/retry"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config menampung seluruh pengaturan runtime bot.
type Config struct {
	BotToken         string `validate:"required"`
	GroupID          int64
	AdminUsernames   []string `validate:"min=1,dive,required"`
	Timezone         string   `validate:"required"`
	BotWebhookURL    string   `validate:"omitempty,url"`
	BotWebhookSecret string
	TelegramTimeout  time.Duration `validate:"gt=0"`
	TelegramRate     float64       `validate:"gt=0"`

	SheetsID           string
	SheetsTab          string `validate:"required"`
	ServiceAccountMail string
	PrivateKey         string
	CredentialsFile    string

	DB DBConfig

	Port           string `validate:"required"`
	AdminJWTSecret string
	CORSOrigins    []string

	OutboxFile          string        `validate:"required"`
	OutboxDrainSchedule string        `validate:"required"`
	CacheTTL            time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=console json"`
}

type DBConfig struct {
	User        string
	Password    string
	Host        string
	Port        string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

// Enabled: tanpa host DB, penyimpanan relasional dimatikan (hanya spreadsheet).
func (d DBConfig) Enabled() bool { return d.Host != "" && d.Name != "" }

func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=absensi_bot&options=-c statement_timeout=3000",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// SheetsEnabled true kalau kredensial Google tersedia.
func (c *Config) SheetsEnabled() bool {
	if c.SheetsID == "" {
		return false
	}
	return c.CredentialsFile != "" || (c.ServiceAccountMail != "" && c.PrivateKey != "")
}

// IsAdmin membandingkan username Telegram (tanpa '@', case-insensitive).
func (c *Config) IsAdmin(username string) bool {
	u := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	if u == "" {
		return false
	}
	for _, a := range c.AdminUsernames {
		if a == u {
			return true
		}
	}
	return false
}

// =======================
// ENV LOADER
// =======================
func LoadEnv(log *zap.Logger) {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Warn("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Info("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Info("🚀 Running in Railway, menggunakan ENV dari sistem")
	}
}

// Load membaca ENV ke Config lalu memvalidasinya.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:         GetEnv("BOT_TOKEN"),
		AdminUsernames:   splitList(GetEnv("ADMIN_USERNAMES", "alfiyyann")),
		Timezone:         GetEnv("TZ", "Asia/Jakarta"),
		BotWebhookURL:    GetEnv("BOT_WEBHOOK_URL"),
		BotWebhookSecret: GetEnv("BOT_WEBHOOK_SECRET"),
		TelegramTimeout:  GetEnvDuration("TELEGRAM_TIMEOUT", 10*time.Second),
		TelegramRate:     GetEnvFloat("TELEGRAM_RATE_PER_SEC", 25),

		SheetsID:           GetEnv("GOOGLE_SHEETS_ID"),
		SheetsTab:          GetEnv("GOOGLE_SHEETS_RANGE", "Absensi"),
		ServiceAccountMail: GetEnv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		PrivateKey:         strings.ReplaceAll(GetEnv("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),
		CredentialsFile:    GetEnv("GOOGLE_APPLICATION_CREDENTIALS"),

		DB: DBConfig{
			User:        GetEnv("DB_USER"),
			Password:    GetEnv("DB_PASSWORD"),
			Host:        GetEnv("DB_HOST"),
			Port:        GetEnv("DB_PORT", "5432"),
			Name:        GetEnv("DB_NAME"),
			SSLMode:     GetEnv("DB_SSLMODE", "require"),
			AutoMigrate: GetEnvBool("DB_AUTO_MIGRATE", false),
		},

		Port:           GetEnv("PORT", "3000"),
		AdminJWTSecret: GetEnv("ADMIN_JWT_SECRET"),
		CORSOrigins:    splitOrigins(GetEnv("CORS_ORIGINS")),

		OutboxFile:          GetEnv("OUTBOX_FILE", "data/pending-messages.json"),
		OutboxDrainSchedule: GetEnv("OUTBOX_DRAIN_SCHEDULE", "@every 5m"),
		CacheTTL:            GetEnvDuration("CACHE_TTL", 3*time.Minute),

		LogLevel:  strings.ToLower(GetEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(GetEnv("LOG_FORMAT", "console")),
	}

	if v := GetEnv("GROUP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("GROUP_ID tidak valid %q: %w", v, err)
		}
		cfg.GroupID = id
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("konfigurasi tidak valid: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("TZ tidak dikenal %q: %w", cfg.Timezone, err)
	}
	// request yang ditinggal retry masih bisa terkirim → duplikat
	if cfg.TelegramTimeout >= retry.DefaultAttemptTimeout {
		return nil, fmt.Errorf("TELEGRAM_TIMEOUT %s harus < %s", cfg.TelegramTimeout, retry.DefaultAttemptTimeout)
	}
	return cfg, nil
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func GetEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p), "@"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitOrigins: origin CORS dipisah koma, apa adanya (tanpa lowercase).
func splitOrigins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
