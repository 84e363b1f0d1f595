// file: internals/helpers/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"absensi_bot/internals/helpers/metrics"

	"go.uber.org/zap"
)

var ErrExhaustedRetries = errors.New("retry: jatah percobaan habis")

// Options: MaxAttempts = total percobaan (termasuk yang pertama).
type Options struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration // 0 = tanpa batas per percobaan
}

// DefaultAttemptTimeout: batas satu percobaan. TELEGRAM_TIMEOUT harus di bawahnya.
const DefaultAttemptTimeout = 15 * time.Second

// Budget balasan langsung ke user.
func ReplyOptions() Options {
	return Options{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 10 * time.Second, AttemptTimeout: DefaultAttemptTimeout}
}

// Budget saat mengosongkan outbox (pesan di sana sudah pernah gagal).
func DrainOptions() Options {
	return Options{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second, AttemptTimeout: DefaultAttemptTimeout}
}

// Delay untuk percobaan ke-n (0-indexed): min(base * 2^n, max). Tanpa jitter.
func (o Options) Delay(n int) time.Duration {
	d := o.BaseDelay
	for i := 0; i < n; i++ {
		d *= 2
		if o.MaxDelay > 0 && d >= o.MaxDelay {
			return o.MaxDelay
		}
	}
	if o.MaxDelay > 0 && d > o.MaxDelay {
		return o.MaxDelay
	}
	return d
}

// Executor membungkus operasi dengan retry + exponential backoff.
type Executor struct {
	log   *zap.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutor(log *zap.Logger) *Executor {
	return &Executor{log: log.Named("retry"), sleep: sleepCtx}
}

// WithSleep mengganti fungsi tunggu (dipakai test).
func (e *Executor) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Executor {
	cp := *e
	cp.sleep = fn
	return &cp
}

// Do menjalankan op sampai berhasil, gagal non-retryable, atau jatah habis.
func (e *Executor) Do(ctx context.Context, name string, opts Options, op func(ctx context.Context) error) error {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		err := e.once(ctx, opts, op)
		if err == nil {
			if attempt > 0 {
				e.log.Info("✅ Berhasil setelah retry", zap.String("op", name), zap.Int("attempt", attempt+1))
			}
			return nil
		}
		lastErr = err

		// ctx pemanggil dibatalkan → berhenti, bukan urusan retry
		if ctx.Err() != nil {
			return fmt.Errorf("%s dibatalkan: %w", name, ctx.Err())
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == opts.MaxAttempts-1 {
			break
		}

		delay := opts.Delay(attempt)
		metrics.RetryAttempts.WithLabelValues(name).Inc()
		e.log.Warn("⚠️ Network error, retry...",
			zap.String("op", name),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", opts.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := e.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s dibatalkan: %w", name, err)
		}
	}

	metrics.RetryExhausted.WithLabelValues(name).Inc()
	e.log.Error("❌ Semua percobaan gagal",
		zap.String("op", name),
		zap.Int("attempts", opts.MaxAttempts),
		zap.Error(lastErr),
	)
	return fmt.Errorf("%w: %s (%d percobaan): %w", ErrExhaustedRetries, name, opts.MaxAttempts, lastErr)
}

func (e *Executor) once(ctx context.Context, opts Options, op func(ctx context.Context) error) error {
	if opts.AttemptTimeout <= 0 {
		return op(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, opts.AttemptTimeout)
	defer cancel()
	return op(actx)
}

// Signature error transport yang layak di-retry.
var networkSignatures = []string{
	"econnreset",
	"connection reset",
	"econnaborted",
	"connection aborted",
	"econnrefused",
	"connection refused",
	"etimedout",
	"timed out",
	"i/o timeout",
	"timeout",
	"enotfound",
	"no such host",
	"network request failed",
	"socket hang up",
	"fetch failed",
	"broken pipe",
	"unexpected eof",
}

// IsRetryable: true kalau error berasal dari jaringan / timeout per percobaan.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range networkSignatures {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
