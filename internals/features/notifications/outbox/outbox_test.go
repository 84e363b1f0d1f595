package outbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"absensi_bot/internals/helpers/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSender struct {
	mu    sync.Mutex
	fail  map[int64]error
	sent  []int64
	calls int
	hook  func()
}

func (f *fakeSender) Send(_ context.Context, chatID int64, _ string, _ ParseMode) error {
	f.mu.Lock()
	f.calls++
	hook := f.hook
	err := f.fail[chatID]
	if err == nil {
		f.sent = append(f.sent, chatID)
	}
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func noSleep() *retry.Executor {
	return retry.NewExecutor(zap.NewNop()).WithSleep(func(context.Context, time.Duration) error { return nil })
}

func newQueue(t *testing.T, log *zap.Logger) *Queue {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "pending-messages.json")
	return NewQueue(path, noSleep(), log)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	require.NoError(t, q.Load())
	assert.Equal(t, 0, q.Size())
}

func TestEnqueuePersistsAndReloads(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	require.NoError(t, q.Load())

	m, err := q.Enqueue(-100123, "<b>halo</b>", ModeHTML)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Zero(t, m.Attempts)

	_, err = os.Stat(q.Path())
	require.NoError(t, err, "file ditulis saat enqueue")

	reloaded := NewQueue(q.Path(), noSleep(), zap.NewNop())
	require.NoError(t, reloaded.Load())
	got := reloaded.List()
	require.Len(t, got, 1)
	assert.Equal(t, m.ID, got[0].ID)
	assert.Equal(t, int64(-100123), got[0].ChatID)
	assert.Equal(t, ModeHTML, got[0].ParseMode)
	assert.Equal(t, "<b>halo</b>", got[0].Text)
	assert.Zero(t, got[0].Attempts)
	assert.True(t, m.CreatedAt.Equal(got[0].CreatedAt), "created_at %s != %s", m.CreatedAt, got[0].CreatedAt)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	require.NoError(t, os.MkdirAll(filepath.Dir(q.Path()), 0o755))
	require.NoError(t, os.WriteFile(q.Path(), []byte("{bukan json"), 0o644))
	assert.Error(t, q.Load())
}

func TestDrainRemovesDeliveredAndKeepsFailed(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	_, err := q.Enqueue(1, "a", ModeHTML)
	require.NoError(t, err)
	_, err = q.Enqueue(2, "b", ModeHTML)
	require.NoError(t, err)

	sender := &fakeSender{fail: map[int64]error{2: errors.New("connect: connection refused")}}
	res, err := q.Drain(context.Background(), sender)
	require.NoError(t, err)

	assert.Equal(t, DrainResult{Sent: 1, Requeue: 1}, res)
	left := q.List()
	require.Len(t, left, 1)
	assert.Equal(t, int64(2), left[0].ChatID)
	assert.Equal(t, 1, left[0].Attempts)
	// 1 kirim sukses + 3 percobaan (budget drain) untuk chat 2
	assert.Equal(t, 4, sender.calls)

	reloaded := NewQueue(q.Path(), noSleep(), zap.NewNop())
	require.NoError(t, reloaded.Load())
	got := reloaded.List()
	require.Len(t, got, 1, "hasil drain tersimpan ke disk")
	assert.Equal(t, left[0].ID, got[0].ID)
	assert.Equal(t, 1, got[0].Attempts)
	assert.True(t, left[0].CreatedAt.Equal(got[0].CreatedAt))
}

func TestDrainDropsAfterMaxAttemptsAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	q := newQueue(t, zap.New(core))
	_, err := q.Enqueue(9, "x", ModePlain)
	require.NoError(t, err)

	sender := &fakeSender{fail: map[int64]error{9: errors.New("read: connection reset by peer")}}
	for i := 1; i < DefaultMaxAttempts; i++ {
		res, err := q.Drain(context.Background(), sender)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Requeue)
		require.Equal(t, 1, q.Size())
		assert.Equal(t, i, q.List()[0].Attempts)
	}

	res, err := q.Drain(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 0, q.Size())

	dropped := logs.FilterMessage("❌ Message removed from queue").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, int64(DefaultMaxAttempts), dropped[0].ContextMap()["attempts"])
}

func TestDrainNonRetryableStillCountsAttempt(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	_, err := q.Enqueue(5, "x", ModePlain)
	require.NoError(t, err)

	sender := &fakeSender{fail: map[int64]error{5: errors.New("Bad Request: chat not found")}}
	_, err = q.Drain(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, 1, sender.calls, "error non-network tidak di-retry")
	assert.Equal(t, 1, q.List()[0].Attempts)
}

func TestConcurrentDrainIsRejected(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	_, err := q.Enqueue(1, "a", ModePlain)
	require.NoError(t, err)

	inside := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	sender := &fakeSender{hook: func() {
		once.Do(func() {
			close(inside)
			<-release
		})
	}}

	done := make(chan error, 1)
	go func() {
		_, err := q.Drain(context.Background(), sender)
		done <- err
	}()
	<-inside

	_, err = q.Drain(context.Background(), sender)
	assert.ErrorIs(t, err, ErrDrainInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, q.Size())
}

func TestEnqueueDuringDrainIsKept(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	_, err := q.Enqueue(1, "a", ModePlain)
	require.NoError(t, err)

	var once sync.Once
	sender := &fakeSender{}
	sender.hook = func() {
		once.Do(func() {
			_, err := q.Enqueue(2, "baru", ModePlain)
			assert.NoError(t, err)
		})
	}

	res, err := q.Drain(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	left := q.List()
	require.Len(t, left, 1)
	assert.Equal(t, int64(2), left[0].ChatID)
}

func TestDrainCancelledLeavesRemainingUntouched(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	for i := int64(1); i <= 3; i++ {
		_, err := q.Enqueue(i, "x", ModePlain)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sender := &fakeSender{hook: cancel}
	res, err := q.Drain(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	left := q.List()
	require.Len(t, left, 2)
	for _, m := range left {
		assert.Zero(t, m.Attempts)
	}
}

func TestNotifierQueuesOnlyOnExhaustion(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	sender := &fakeSender{fail: map[int64]error{
		1: errors.New("dial tcp: i/o timeout"),
		2: errors.New("Forbidden: bot was blocked by the user"),
	}}
	n := NewNotifier(sender, q, noSleep(), zap.NewNop())
	ctx := context.Background()

	queued, err := n.DeliverOrQueue(ctx, 1, "tercatat", ModeHTML)
	require.NoError(t, err)
	assert.True(t, queued)
	assert.Equal(t, 1, q.Size())

	queued, err = n.DeliverOrQueue(ctx, 2, "x", ModeHTML)
	assert.Error(t, err)
	assert.False(t, queued)
	assert.Equal(t, 1, q.Size())

	queued, err = n.DeliverOrQueue(ctx, 3, "ok", ModeHTML)
	require.NoError(t, err)
	assert.False(t, queued)

	err = n.Deliver(ctx, 1, "info", ModeHTML)
	assert.ErrorIs(t, err, retry.ErrExhaustedRetries)
	assert.Equal(t, 1, q.Size(), "Deliver tidak pernah mengantrekan")
}

func TestNotifierQueuesWhenContextExpired(t *testing.T) {
	q := newQueue(t, zap.NewNop())
	sender := &fakeSender{fail: map[int64]error{7: errors.New("dial tcp: i/o timeout")}}
	n := NewNotifier(sender, q, noSleep(), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	queued, err := n.DeliverOrQueue(ctx, 7, "tercatat", ModeHTML)
	require.NoError(t, err)
	assert.True(t, queued)
	require.Equal(t, 1, q.Size())
	assert.Equal(t, int64(7), q.List()[0].ChatID)
}
