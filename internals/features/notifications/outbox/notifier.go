// file: internals/features/notifications/outbox/notifier.go
package outbox

import (
	"context"
	"errors"

	"absensi_bot/internals/helpers/retry"

	"go.uber.org/zap"
)

// Notifier: kirim langsung dengan retry; kalau jatah habis, pesan masuk antrean.
type Notifier struct {
	sender Sender
	queue  *Queue
	retry  *retry.Executor
	opts   retry.Options
	log    *zap.Logger
}

func NewNotifier(sender Sender, queue *Queue, exec *retry.Executor, log *zap.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		queue:  queue,
		retry:  exec,
		opts:   retry.ReplyOptions(),
		log:    log.Named("notifier"),
	}
}

func (n *Notifier) WithRetryOptions(o retry.Options) *Notifier {
	n.opts = o
	return n
}

func (n *Notifier) Sender() Sender { return n.sender }
func (n *Notifier) Queue() *Queue  { return n.queue }

// Deliver: best effort, tanpa antrean (balasan penolakan, info).
func (n *Notifier) Deliver(ctx context.Context, chatID int64, text string, mode ParseMode) error {
	err := n.retry.Do(ctx, "telegram.reply", n.opts, func(ctx context.Context) error {
		return n.sender.Send(ctx, chatID, text, mode)
	})
	if err != nil {
		n.log.Error("❌ Failed to send reply after all retries", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return err
}

// DeliverOrQueue dipakai setelah state berubah (absen tercatat, rekap terjadwal).
// queued=true → pesan aman di outbox, bukan error. ctx batal juga diantrekan.
func (n *Notifier) DeliverOrQueue(ctx context.Context, chatID int64, text string, mode ParseMode) (queued bool, err error) {
	err = n.retry.Do(ctx, "telegram.reply", n.opts, func(ctx context.Context) error {
		return n.sender.Send(ctx, chatID, text, mode)
	})
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, retry.ErrExhaustedRetries) && ctx.Err() == nil {
		n.log.Error("❌ Reply gagal (bukan network error), tidak diantrekan", zap.Int64("chat_id", chatID), zap.Error(err))
		return false, err
	}

	if _, qerr := n.queue.Enqueue(chatID, text, mode); qerr != nil {
		n.log.Error("❌ Gagal mengantrekan pesan", zap.Int64("chat_id", chatID), zap.Error(qerr))
		return false, errors.Join(err, qerr)
	}
	n.log.Warn("📥 Reply dialihkan ke outbox", zap.Int64("chat_id", chatID))
	return true, nil
}
