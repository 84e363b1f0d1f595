// file: internals/features/bot/runner.go
package bot

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"absensi_bot/internals/helpers/metrics"

	"github.com/bytedance/sonic"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	HeaderSecretToken = "X-Telegram-Bot-Api-Secret-Token"
	WebhookPath       = "/telegram/webhook"

	defaultWorkers = 4
	defaultBuffer  = 256
	handleTimeout  = 2 * time.Minute
)

// UpdateHandler dipenuhi *Handler.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd tgbotapi.Update)
}

// Runner: antrean update + worker; sumbernya polling atau webhook.
type Runner struct {
	bot     *tgbotapi.BotAPI
	handler UpdateHandler
	secret  string
	workers int
	log     *zap.Logger

	updates chan tgbotapi.Update
	wg      sync.WaitGroup
	forward sync.WaitGroup
	polling bool

	mu     sync.RWMutex
	closed bool
}

type RunnerOptions struct {
	Workers       int
	Buffer        int
	WebhookSecret string
}

func NewRunner(bot *tgbotapi.BotAPI, h UpdateHandler, opts RunnerOptions, log *zap.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	return &Runner{
		bot:     bot,
		handler: h,
		secret:  opts.WebhookSecret,
		workers: opts.Workers,
		log:     log.Named("runner"),
		updates: make(chan tgbotapi.Update, opts.Buffer),
	}
}

// Start menyalakan worker. ctx dipakai sebagai parent setiap update.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for upd := range r.updates {
				hctx, cancel := context.WithTimeout(ctx, handleTimeout)
				r.handler.HandleUpdate(hctx, upd)
				cancel()
			}
		}()
	}
}

// Stop: hentikan polling (kalau aktif), tutup antrean, tunggu worker selesai.
func (r *Runner) Stop(ctx context.Context) error {
	if r.polling && r.bot != nil {
		r.bot.StopReceivingUpdates()
		r.forward.Wait()
	}
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.updates)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue: false kalau antrean penuh atau runner sudah berhenti.
func (r *Runner) Enqueue(upd tgbotapi.Update) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.updates <- upd:
		return true
	default:
		return false
	}
}

// push: versi blocking untuk polling.
func (r *Runner) push(ctx context.Context, upd tgbotapi.Update) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.updates <- upd:
		return true
	case <-ctx.Done():
		return false
	}
}

// ================== POLLING ==================

// StartPolling menghapus webhook lama lalu long-poll sampai ctx selesai.
func (r *Runner) StartPolling(ctx context.Context) error {
	if _, err := r.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}
	ch := r.bot.GetUpdatesChan(u)
	r.polling = true

	r.forward.Add(1)
	go func() {
		defer r.forward.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-ch:
				if !ok {
					return
				}
				metrics.BotUpdates.WithLabelValues("polling").Inc()
				// polling boleh menunggu; update tidak dibuang
				if !r.push(ctx, upd) {
					return
				}
			}
		}
	}()

	r.log.Info("🤖 Bot berjalan (long polling)", zap.String("username", r.bot.Self.UserName))
	return nil
}

// ================== WEBHOOK ==================

// RegisterWebhook: setWebhook dengan secret_token (belum ada di WebhookConfig v5.5).
func (r *Runner) RegisterWebhook(url string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", r.secret)
	params["allowed_updates"] = `["message"]`

	if _, err := r.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	r.log.Info("🔗 Webhook terdaftar", zap.String("url", url))
	return nil
}

// WebhookHandler: verifikasi secret, parse update, balas 200 secepatnya.
func (r *Runner) WebhookHandler(c *fiber.Ctx) error {
	if r.secret != "" {
		got := c.Get(HeaderSecretToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(r.secret)) != 1 {
			r.log.Warn("🚫 Webhook secret tidak cocok", zap.String("ip", c.IP()))
			return fiber.NewError(fiber.StatusUnauthorized, "secret tidak valid")
		}
	}

	var upd tgbotapi.Update
	if err := sonic.Unmarshal(c.Body(), &upd); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "update tidak valid")
	}
	metrics.BotUpdates.WithLabelValues("webhook").Inc()

	if !r.Enqueue(upd) {
		// Telegram akan mengirim ulang
		r.log.Warn("⚠️ Antrean update penuh", zap.Int("update_id", upd.UpdateID))
		return fiber.NewError(fiber.StatusServiceUnavailable, "sibuk")
	}
	return c.SendStatus(fiber.StatusOK)
}
