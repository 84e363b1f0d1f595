// file: internals/features/notifications/outbox/queue.go
package outbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"absensi_bot/internals/helpers/metrics"
	"absensi_bot/internals/helpers/retry"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultFile        = "data/pending-messages.json"
	DefaultMaxAttempts = 5
)

var (
	ErrAttemptsExceeded = errors.New("outbox: batas percobaan terlampaui")
	ErrDrainInProgress  = errors.New("outbox: drain sedang berjalan")
)

// ParseMode Telegram.
type ParseMode string

const (
	ModePlain      ParseMode = ""
	ModeHTML       ParseMode = "HTML"
	ModeMarkdown   ParseMode = "Markdown"
	ModeMarkdownV2 ParseMode = "MarkdownV2"
)

// PendingMessage: notifikasi yang belum terkirim.
type PendingMessage struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chatId"`
	Text      string    `json:"text"`
	ParseMode ParseMode `json:"parseMode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Attempts  int       `json:"attempts"`
}

// Sender: pengirim pesan keluar (Telegram).
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, mode ParseMode) error
}

type DrainResult struct {
	Sent    int `json:"sent"`
	Requeue int `json:"requeued"`
	Dropped int `json:"dropped"`
}

// Queue: antrean di memori, dicerminkan ke file JSON pada setiap mutasi.
// Semua enqueue/drain/save lewat mu (satu penulis).
type Queue struct {
	path        string
	maxAttempts int
	retry       *retry.Executor
	opts        retry.Options
	now         func() time.Time
	log         *zap.Logger

	mu       sync.Mutex
	items    []PendingMessage
	draining atomic.Bool
}

func NewQueue(path string, exec *retry.Executor, log *zap.Logger) *Queue {
	if path == "" {
		path = DefaultFile
	}
	return &Queue{
		path:        path,
		maxAttempts: DefaultMaxAttempts,
		retry:       exec,
		opts:        retry.DrainOptions(),
		now:         time.Now,
		log:         log.Named("outbox"),
	}
}

// WithRetryOptions mengganti budget retry saat drain.
func (q *Queue) WithRetryOptions(o retry.Options) *Queue {
	q.opts = o
	return q
}

func (q *Queue) Path() string { return q.path }

// Load dipanggil sekali saat start. File belum ada = antrean kosong.
func (q *Queue) Load() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	b, err := os.ReadFile(q.path)
	if errors.Is(err, os.ErrNotExist) {
		q.items = nil
		metrics.OutboxSize.Set(0)
		return nil
	}
	if err != nil {
		return fmt.Errorf("baca outbox %s: %w", q.path, err)
	}

	var items []PendingMessage
	if len(b) > 0 {
		if err := sonic.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("decode outbox %s: %w", q.path, err)
		}
	}
	q.items = items
	metrics.OutboxSize.Set(float64(len(items)))
	if len(items) > 0 {
		q.log.Info("📦 Loaded pending messages from queue", zap.Int("count", len(items)))
	}
	return nil
}

// Save menulis ulang seluruh antrean (dipakai juga saat shutdown).
func (q *Queue) Save() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.saveLocked()
}

// saveLocked: tulis ke file sementara lalu rename, supaya file tidak setengah jadi.
func (q *Queue) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("buat folder outbox: %w", err)
	}
	items := q.items
	if items == nil {
		items = []PendingMessage{}
	}
	b, err := sonic.ConfigStd.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outbox: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(q.path), ".pending-*.json")
	if err != nil {
		return fmt.Errorf("tulis outbox: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("tulis outbox: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tulis outbox: %w", err)
	}
	if err := os.Rename(tmp.Name(), q.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename outbox: %w", err)
	}

	metrics.OutboxSize.Set(float64(len(q.items)))
	if len(q.items) > 0 {
		q.log.Debug("💾 Saved pending messages to queue", zap.Int("count", len(q.items)))
	}
	return nil
}

// Enqueue menambah pesan dan langsung menyimpan ke disk.
func (q *Queue) Enqueue(chatID int64, text string, mode ParseMode) (PendingMessage, error) {
	msg := PendingMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Text:      text,
		ParseMode: mode,
		CreatedAt: q.now().UTC(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, msg)
	if err := q.saveLocked(); err != nil {
		return msg, err
	}
	metrics.OutboxEvents.WithLabelValues("queued").Inc()
	q.log.Info("📥 Message queued", zap.Int64("chat_id", chatID), zap.Int("queue_size", len(q.items)))
	return msg, nil
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// List: salinan isi antrean.
func (q *Queue) List() []PendingMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]PendingMessage(nil), q.items...)
}

// Drain mencoba kirim semua pesan sekali jalan.
// Berhasil → dibuang; gagal → attempts++ dan disimpan lagi, kecuali sudah mencapai batas.
// Hanya satu drain boleh jalan; pemanggil kedua dapat ErrDrainInProgress.
func (q *Queue) Drain(ctx context.Context, sender Sender) (DrainResult, error) {
	var res DrainResult
	if !q.draining.CompareAndSwap(false, true) {
		return res, ErrDrainInProgress
	}
	defer q.draining.Store(false)

	q.mu.Lock()
	snapshot := append([]PendingMessage(nil), q.items...)
	q.mu.Unlock()

	if len(snapshot) == 0 {
		return res, nil
	}
	q.log.Info("📤 Processing pending messages...", zap.Int("count", len(snapshot)))

	processed := make(map[string]bool, len(snapshot))
	var keep []PendingMessage

	for _, m := range snapshot {
		processed[m.ID] = true

		// dibatalkan (shutdown) → sisa pesan tetap utuh
		if ctx.Err() != nil {
			keep = append(keep, m)
			continue
		}

		err := q.retry.Do(ctx, "outbox.send", q.opts, func(ctx context.Context) error {
			return sender.Send(ctx, m.ChatID, m.Text, m.ParseMode)
		})
		if err == nil {
			res.Sent++
			metrics.OutboxEvents.WithLabelValues("sent").Inc()
			q.log.Info("✅ Sent queued message", zap.Int64("chat_id", m.ChatID), zap.String("id", m.ID))
			continue
		}

		m.Attempts++
		if m.Attempts < q.maxAttempts {
			res.Requeue++
			keep = append(keep, m)
			metrics.OutboxEvents.WithLabelValues("requeued").Inc()
			q.log.Warn("⚠️ Failed to send queued message, will retry later",
				zap.Int64("chat_id", m.ChatID),
				zap.String("id", m.ID),
				zap.Int("attempt", m.Attempts),
				zap.Int("max_attempts", q.maxAttempts),
				zap.Error(err),
			)
			continue
		}

		res.Dropped++
		metrics.OutboxEvents.WithLabelValues("dropped").Inc()
		q.log.Error("❌ Message removed from queue",
			zap.Int64("chat_id", m.ChatID),
			zap.String("id", m.ID),
			zap.Int("attempts", m.Attempts),
			zap.Error(fmt.Errorf("%w: %w", ErrAttemptsExceeded, err)),
		)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	// pesan yang masuk selama drain berjalan tetap dipertahankan
	for _, m := range q.items {
		if !processed[m.ID] {
			keep = append(keep, m)
		}
	}
	q.items = keep
	if err := q.saveLocked(); err != nil {
		return res, err
	}
	if res.Sent > 0 {
		q.log.Info("📬 Processed queued messages", zap.Int("sent", res.Sent))
	}
	return res, nil
}
