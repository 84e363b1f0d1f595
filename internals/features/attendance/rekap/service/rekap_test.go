package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"absensi_bot/internals/features/attendance/sheets"
	"absensi_bot/internals/features/notifications/outbox"
	"absensi_bot/internals/helpers/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	recs []sheets.Record
	err  error
}

func (f *fakeSource) Load(context.Context) ([]sheets.Record, error) { return f.recs, f.err }

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	chats []int64
	err   error
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string, _ outbox.ParseMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.chats = append(f.chats, chatID)
	f.texts = append(f.texts, text)
	return nil
}

type fakeAnimator struct{ urls []string }

func (f *fakeAnimator) SendAnimation(_ context.Context, _ int64, url, _ string, _ outbox.ParseMode) error {
	f.urls = append(f.urls, url)
	return nil
}

func wib(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func rec(loc *time.Location, day, hour int, unit, nama, status string) sheets.Record {
	return sheets.Record{
		Waktu:  time.Date(2026, 1, day, hour, 0, 0, 0, loc),
		Nama:   nama,
		Unit:   unit,
		Status: status,
	}
}

// Jumat 9 Jan 2026 17:05 WIB → minggu 3–9 Jan, bulan 16 Des–15 Jan.
func newBuilder(t *testing.T, src *fakeSource) *Builder {
	t.Helper()
	loc := wib(t)
	now := time.Date(2026, 1, 9, 17, 5, 0, 0, loc)
	return NewBuilder(src, loc).WithClock(func() time.Time { return now })
}

func sampleRecords(loc *time.Location) []sheets.Record {
	return []sheets.Record{
		rec(loc, 7, 8, "Daman", "Budi", "Telat"),
		rec(loc, 5, 7, "Daman", "Andi", "Ontime"),
		rec(loc, 6, 7, "Daman", "Andi", "Ontime"),
		rec(loc, 7, 9, "Daman", "Andi", "Telat"),
		rec(loc, 2, 7, "Daman", "Citra", "Ontime"), // minggu lalu
		rec(loc, 9, 7, "SDI", "Sari", "Ontime"),
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"harian":         KindHarian,
		"MINGGUAN":       KindMingguan,
		"/rekapbulanan":  "",
		"rekapbulanan":   KindBulanan,
		" rekapHarian  ": KindHarian,
	} {
		got, ok := ParseKind(in)
		assert.Equal(t, want != "", ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestWeeklyGroupingOmitsZeroCounts(t *testing.T) {
	loc := wib(t)
	src := &fakeSource{recs: []sheets.Record{
		rec(loc, 5, 7, "X", "A", "Ontime"),
		rec(loc, 6, 7, "X", "A", "Ontime"),
		rec(loc, 7, 9, "X", "A", "Telat"),
		rec(loc, 8, 7, "X", "B", "Ontime"),
	}}

	rep, err := newBuilder(t, src).Build(context.Background(), KindMingguan)
	require.NoError(t, err)

	assert.Equal(t,
		"<b>📊 REKAP MINGGUAN (3 Jan 2026 - 9 Jan 2026)</b>\n\n"+
			"🏷️ <b>X</b>\n"+
			"• <b>A</b>\n  Ontime: 2 | Telat: 1 | Total: 3\n"+
			"• <b>B</b>\n  Ontime: 1 | Total: 1",
		rep.Text())
}

func TestWeeklySortsUnitsAndNames(t *testing.T) {
	src := &fakeSource{recs: sampleRecords(wib(t))}

	rep, err := newBuilder(t, src).Build(context.Background(), KindMingguan)
	require.NoError(t, err)
	require.Len(t, rep.Units, 2)

	assert.Equal(t, "Daman", rep.Units[0].Unit)
	assert.Equal(t, []Tally{{Nama: "Andi", Ontime: 2, Telat: 1}, {Nama: "Budi", Telat: 1}}, rep.Units[0].Members)
	assert.Equal(t, "SDI", rep.Units[1].Unit)
	assert.Equal(t, 5, rep.Counts)
	assert.Contains(t, rep.Text(), "• <b>Budi</b>\n  Telat: 1 | Total: 1")
}

func TestDailyShowsPresenceOnly(t *testing.T) {
	src := &fakeSource{recs: sampleRecords(wib(t))}

	rep, err := newBuilder(t, src).Build(context.Background(), KindHarian)
	require.NoError(t, err)

	assert.Equal(t, "<b>📊 REKAP HARIAN (9 Jan 2026)</b>\n\n🏷️ <b>SDI</b>\n• Sari", rep.Text())
}

func TestMonthlyWindowIncludesPreviousWeek(t *testing.T) {
	src := &fakeSource{recs: sampleRecords(wib(t))}

	rep, err := newBuilder(t, src).Build(context.Background(), KindBulanan)
	require.NoError(t, err)

	assert.Equal(t, "16 Des 2025 - 15 Jan 2026", rep.Label)
	assert.Equal(t, 6, rep.Counts)
	assert.Contains(t, rep.Text(), "• <b>Citra</b>\n  Ontime: 1 | Total: 1")
}

func TestWindowUsesLocalCalendarDate(t *testing.T) {
	// 8 Jan 17:30 UTC = 9 Jan 00:30 WIB
	src := &fakeSource{recs: []sheets.Record{{
		Waktu:  time.Date(2026, 1, 8, 17, 30, 0, 0, time.UTC),
		Nama:   "Malam",
		Unit:   "Daman",
		Status: "Ontime",
	}}}

	rep, err := newBuilder(t, src).Build(context.Background(), KindHarian)
	require.NoError(t, err)
	assert.False(t, rep.Empty())
}

func TestEmptyIsNotAnError(t *testing.T) {
	rep, err := newBuilder(t, &fakeSource{}).Build(context.Background(), KindHarian)
	require.NoError(t, err)
	assert.True(t, rep.Empty())
	assert.Equal(t, "📭 <b>Belum ada data absensi hari ini.</b>", KindHarian.EmptyMessage())
	assert.Equal(t, "📭 <b>Belum ada data absensi minggu ini.</b>", KindMingguan.EmptyMessage())
}

func TestFetchFailureIsAnError(t *testing.T) {
	src := &fakeSource{err: sheets.ErrFetchFailure}
	rep, err := newBuilder(t, src).Build(context.Background(), KindMingguan)
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, sheets.ErrFetchFailure)
	assert.Equal(t, "❌ Terjadi kesalahan saat mengambil rekap mingguan.", KindMingguan.ErrorMessage())
}

// ================== SCHEDULER ==================

func newScheduler(t *testing.T, src *fakeSource, sender *fakeSender, groupID int64) *Scheduler {
	t.Helper()
	exec := retry.NewExecutor(zap.NewNop()).WithSleep(func(context.Context, time.Duration) error { return nil })
	q := outbox.NewQueue(filepath.Join(t.TempDir(), "pending.json"), exec, zap.NewNop())
	return NewScheduler(SchedulerDeps{
		Builder:   newBuilder(t, src),
		Notifier:  outbox.NewNotifier(sender, q, exec, zap.NewNop()),
		Animator:  &fakeAnimator{},
		Retry:     exec,
		GroupID:   groupID,
		Location:  wib(t),
		DrainSpec: "@every 5m",
		Log:       zap.NewNop(),
	})
}

func TestRegisterAddsAllJobs(t *testing.T) {
	s := newScheduler(t, &fakeSource{}, &fakeSender{}, -100123)
	require.NoError(t, s.Register())
	assert.Len(t, s.cron.Entries(), 5)
}

func TestRegisterWithoutGroupOnlyDrains(t *testing.T) {
	s := newScheduler(t, &fakeSource{}, &fakeSender{}, 0)
	require.NoError(t, s.Register())
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRegisterRejectsBadDrainSpec(t *testing.T) {
	s := newScheduler(t, &fakeSource{}, &fakeSender{}, 0)
	s.DrainSpec = "tiap lima menit"
	assert.Error(t, s.Register())
}

func TestSendRekapSkipsEmptyReport(t *testing.T) {
	sender := &fakeSender{}
	s := newScheduler(t, &fakeSource{}, sender, -100123)

	sent, err := s.SendRekap(context.Background(), KindHarian)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, sender.texts)
}

func TestSendRekapDeliversToGroup(t *testing.T) {
	sender := &fakeSender{}
	s := newScheduler(t, &fakeSource{recs: sampleRecords(wib(t))}, sender, -100123)

	sent, err := s.SendRekap(context.Background(), KindMingguan)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, sender.texts, 1)
	assert.Equal(t, int64(-100123), sender.chats[0])
	assert.Contains(t, sender.texts[0], "REKAP MINGGUAN")
}

func TestSendRekapQueuesOnNetworkFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("dial tcp: i/o timeout")}
	s := newScheduler(t, &fakeSource{recs: sampleRecords(wib(t))}, sender, -100123)

	sent, err := s.SendRekap(context.Background(), KindHarian)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, 1, s.Notifier.Queue().Size())
}

func TestSendReminderUsesGIF(t *testing.T) {
	s := newScheduler(t, &fakeSource{}, &fakeSender{}, -100123)
	require.NoError(t, s.SendReminder(context.Background()))
	assert.Equal(t, []string{ReminderGIF}, s.Animator.(*fakeAnimator).urls)
}

func TestStartDrainsPendingOutboxOnce(t *testing.T) {
	sender := &fakeSender{}
	s := newScheduler(t, &fakeSource{}, sender, 0)
	_, err := s.Notifier.Queue().Enqueue(-100123, "tertunda", outbox.ModeHTML)
	require.NoError(t, err)
	require.NoError(t, s.Register())

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.Equal(t, 0, s.Notifier.Queue().Size())
	assert.Equal(t, []string{"tertunda"}, sender.texts)
}

func TestStartupDrainToleratesRunningDrain(t *testing.T) {
	s := newScheduler(t, &fakeSource{}, &fakeSender{}, 0)
	_, err := s.Notifier.Queue().Enqueue(1, "x", outbox.ModePlain)
	require.NoError(t, err)

	blocker := &blockingSender{inside: make(chan struct{}), release: make(chan struct{})}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Notifier.Queue().Drain(context.Background(), blocker)
	}()
	<-blocker.inside

	assert.NoError(t, s.DrainOutbox(context.Background()), "drain paralel bukan error")
	close(blocker.release)
	<-done
	assert.Equal(t, 0, s.Notifier.Queue().Size())
}

type blockingSender struct {
	inside  chan struct{}
	release chan struct{}
}

func (b *blockingSender) Send(context.Context, int64, string, outbox.ParseMode) error {
	close(b.inside)
	<-b.release
	return nil
}
