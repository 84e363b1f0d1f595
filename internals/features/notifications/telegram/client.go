// file: internals/features/notifications/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"absensi_bot/internals/features/notifications/outbox"
	"absensi_bot/internals/helpers/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewBotAPI membuat client Bot API dengan http timeout sendiri.
func NewBotAPI(token string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return bot, nil
}

// Client: semua pesan keluar lewat sini (rate limited, ctx-aware).
// Memenuhi outbox.Sender.
type Client struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewClient(bot *tgbotapi.BotAPI, perSecond float64, log *zap.Logger) *Client {
	if perSecond <= 0 {
		perSecond = 25
	}
	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(perSecond)),
		log:     log.Named("telegram"),
	}
}

func (c *Client) Bot() *tgbotapi.BotAPI { return c.bot }

// Send teks biasa / HTML / Markdown.
func (c *Client) Send(ctx context.Context, chatID int64, text string, mode outbox.ParseMode) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = string(mode)
	return c.do(ctx, msg)
}

// SendAnimation: GIF via URL (reminder pagi).
func (c *Client) SendAnimation(ctx context.Context, chatID int64, url, caption string, mode outbox.ParseMode) error {
	anim := tgbotapi.NewAnimation(chatID, tgbotapi.FileURL(url))
	anim.Caption = caption
	anim.ParseMode = string(mode)
	return c.do(ctx, anim)
}

// ResolvePhoto → URL download file dari Telegram.
func (c *Client) ResolvePhoto(ctx context.Context, fileID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	type res struct {
		url string
		err error
	}
	ch := make(chan res, 1)
	go func() {
		u, err := c.bot.GetFileDirectURL(fileID)
		ch <- res{u, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.url, r.err
	}
}

// do: BotAPI tidak menerima context, jadi request dijalankan di goroutine
// dan ditinggal kalau ctx habis (timeout per percobaan dari retry).
// Request yang ditinggal masih bisa sampai; configs.Load menjaga
// TELEGRAM_TIMEOUT < retry.DefaultAttemptTimeout supaya http client yang
// menyerah duluan.
func (c *Client) do(ctx context.Context, ch tgbotapi.Chattable) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := c.bot.Send(ch)
		done <- err
	}()

	select {
	case <-ctx.Done():
		metrics.TelegramSent.WithLabelValues("timeout").Inc()
		return ctx.Err()
	case err := <-done:
		if err != nil {
			metrics.TelegramSent.WithLabelValues("error").Inc()
			c.log.Debug("telegram send gagal", zap.Error(err))
			return err
		}
		metrics.TelegramSent.WithLabelValues("ok").Inc()
		return nil
	}
}
