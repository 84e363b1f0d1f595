// file: internals/helpers/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Semua metrik didaftarkan ke default registry, diekspos di GET /metrics.
var (
	CheckinTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_checkin_total",
		Help: "Jumlah percobaan absen per hasil akhir",
	}, []string{"result"})

	RetryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_retry_attempts_total",
		Help: "Jumlah retry (setelah percobaan pertama gagal) per operasi",
	}, []string{"op"})

	RetryExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_retry_exhausted_total",
		Help: "Jumlah operasi yang kehabisan jatah retry",
	}, []string{"op"})

	OutboxSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "absensi_outbox_pending",
		Help: "Jumlah pesan yang masih antre di outbox",
	})

	OutboxEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_outbox_events_total",
		Help: "Event outbox: queued, sent, requeued, dropped",
	}, []string{"event"})

	SheetCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_sheet_cache_total",
		Help: "Hit/miss/error cache rekaman spreadsheet",
	}, []string{"result"})

	TelegramSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_telegram_sent_total",
		Help: "Pesan keluar ke Telegram per hasil",
	}, []string{"result"})

	ScheduledJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_scheduled_jobs_total",
		Help: "Eksekusi job cron per nama & hasil",
	}, []string{"job", "result"})

	BotUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_bot_updates_total",
		Help: "Update Telegram yang diterima per sumber (polling/webhook)",
	}, []string{"source"})
)
