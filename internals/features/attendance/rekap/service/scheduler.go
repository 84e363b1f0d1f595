// file: internals/features/attendance/rekap/service/scheduler.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"absensi_bot/internals/features/notifications/outbox"
	"absensi_bot/internals/helpers/metrics"
	"absensi_bot/internals/helpers/retry"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	ReminderGIF = "https://media1.giphy.com/media/v1.Y2lkPTc5MGI3NjExcWtleHpjbnJpZGRlbTI0YjA2YmFsZDFnbnd2NWwxbWpia2YzMDBrdCZlcD12MV9pbnRlcm5hbF9naWZfYnlfaWQmY3Q9Zw/UL7IwuaOrgN6NFfgio/giphy.gif"

	ReminderCaption = "😘 Jangan lupa absen hari ini!\n\n" +
		"Kirim foto dengan caption sesuai unit dan jadwal masing-masing yaa.."
)

// Jadwal cron (zona = TZ config).
const (
	SpecReminder = "0 7 * * *"
	SpecHarian   = "0 17 * * *"
	SpecMingguan = "5 17 * * 5"
	SpecBulanan  = "10 17 15 * *"
)

const jobTimeout = 4 * time.Minute

// Animator: kirim GIF reminder.
type Animator interface {
	SendAnimation(ctx context.Context, chatID int64, url, caption string, mode outbox.ParseMode) error
}

type SchedulerDeps struct {
	Builder   *Builder
	Notifier  *outbox.Notifier
	Animator  Animator
	Retry     *retry.Executor
	GroupID   int64
	Location  *time.Location
	DrainSpec string
	Log       *zap.Logger
}

type Scheduler struct {
	SchedulerDeps
	cron    *cron.Cron
	log     *zap.Logger
	startup sync.WaitGroup
}

func NewScheduler(d SchedulerDeps) *Scheduler {
	log := d.Log.Named("scheduler")
	cl := cronLogger{log.Sugar()}
	c := cron.New(
		cron.WithLocation(d.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{SchedulerDeps: d, cron: c, log: log}
}

// Register mendaftarkan semua job. GROUP_ID kosong → reminder & rekap dilewati.
func (s *Scheduler) Register() error {
	s.log.Info("🕐 Setting up scheduled jobs...")

	type job struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}
	var jobs []job
	if s.GroupID != 0 {
		jobs = append(jobs,
			job{"reminder", SpecReminder, s.SendReminder},
			job{"rekap_harian", SpecHarian, s.rekapJob(KindHarian)},
			job{"rekap_mingguan", SpecMingguan, s.rekapJob(KindMingguan)},
			job{"rekap_bulanan", SpecBulanan, s.rekapJob(KindBulanan)},
		)
	} else {
		s.log.Warn("⚠️ GROUP_ID kosong, reminder & rekap terjadwal dimatikan")
	}
	if s.DrainSpec != "" && s.Notifier != nil {
		jobs = append(jobs, job{"outbox_drain", s.DrainSpec, s.DrainOutbox})
	}

	for _, j := range jobs {
		id, err := s.cron.AddFunc(j.spec, func() { s.run(j.name, j.run) })
		if err != nil {
			return fmt.Errorf("add cron %s (%q): %w", j.name, j.spec, err)
		}
		s.log.Info("  ✅ Job terdaftar", zap.String("job", j.name), zap.String("spec", j.spec), zap.Int("entry_id", int(id)))
	}
	s.log.Info("🕐 All scheduled jobs are set up!")
	return nil
}

// Start menjalankan cron + sekali drain outbox (sisa antrean sebelum restart).
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.Notifier == nil {
		return
	}
	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.run("outbox_drain_startup", s.DrainOutbox)
	}()
}

// Stop menunggu job yang sedang jalan.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	finished := make(chan struct{})
	go func() {
		<-done.Done()
		s.startup.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		s.log.Warn("⚠️ Scheduler stop timeout, job masih berjalan")
	}
}

func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.log.Info("⏰ Running scheduled job", zap.String("job", name))
	if err := fn(ctx); err != nil {
		metrics.ScheduledJobs.WithLabelValues(name, "error").Inc()
		s.log.Error("❌ Error in scheduled job", zap.String("job", name), zap.Error(err))
		return
	}
	metrics.ScheduledJobs.WithLabelValues(name, "ok").Inc()
}

func (s *Scheduler) rekapJob(kind Kind) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.SendRekap(ctx, kind)
		return err
	}
}

// SendReminder: GIF + caption ke grup, lewat retry (tidak diantrekan).
func (s *Scheduler) SendReminder(ctx context.Context) error {
	err := s.Retry.Do(ctx, "telegram.reminder", retry.ReplyOptions(), func(ctx context.Context) error {
		return s.Animator.SendAnimation(ctx, s.GroupID, ReminderGIF, ReminderCaption, outbox.ModePlain)
	})
	if err != nil {
		return err
	}
	s.log.Info("✅ Daily reminder sent to group")
	return nil
}

// SendRekap: rekap kosong tidak dikirim (sent=false, err=nil).
// Gagal kirim karena network → masuk outbox.
func (s *Scheduler) SendRekap(ctx context.Context, kind Kind) (sent bool, err error) {
	rep, err := s.Builder.Build(ctx, kind)
	if err != nil {
		return false, err
	}
	if rep.Empty() {
		s.log.Info("📭 No data for rekap", zap.String("kind", string(kind)))
		return false, nil
	}
	queued, err := s.Notifier.DeliverOrQueue(ctx, s.GroupID, rep.Text(), outbox.ModeHTML)
	if err != nil {
		return false, err
	}
	if queued {
		s.log.Warn("📥 Rekap masuk outbox", zap.String("kind", string(kind)))
		return false, nil
	}
	s.log.Info("✅ Rekap sent to group", zap.String("kind", string(kind)))
	return true, nil
}

// DrainOutbox: drain paralel ditolak oleh queue, bukan error job.
func (s *Scheduler) DrainOutbox(ctx context.Context) error {
	q := s.Notifier.Queue()
	if q.Size() == 0 {
		return nil
	}
	_, err := q.Drain(ctx, s.Notifier.Sender())
	if errors.Is(err, outbox.ErrDrainInProgress) {
		s.log.Debug("Outbox drain sedang berjalan, dilewati")
		return nil
	}
	return err
}

// cronLogger: adapter zap → cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
