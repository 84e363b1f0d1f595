// file: internals/features/attendance/sheets/cache.go
package sheets

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"absensi_bot/internals/helpers/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 3 * time.Minute

// RecordCache: snapshot seluruh baris absensi, diganti utuh saat refetch.
// Setiap jalur tulis lewat cache ini supaya invalidasi tidak terlewat.
type RecordCache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger

	mu       sync.RWMutex
	records  []Record
	cachedAt time.Time
	valid    bool
	gen      uint64

	sf singleflight.Group
}

func NewRecordCache(store Store, ttl time.Duration, log *zap.Logger) *RecordCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RecordCache{store: store, ttl: ttl, now: time.Now, log: log.Named("sheet_cache")}
}

// WithClock mengganti sumber waktu (test).
func (c *RecordCache) WithClock(now func() time.Time) *RecordCache {
	c.now = now
	return c
}

// snapshot → (records, true) kalau masih segar.
func (c *RecordCache) snapshot() ([]Record, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.valid && c.now().Sub(c.cachedAt) < c.ttl {
		return c.records, c.gen, true
	}
	return nil, c.gen, false
}

// Load: versi ketat, error fetch dikembalikan (ErrFetchFailure).
// Dipakai cek duplikat, edit admin, dan rekap.
func (c *RecordCache) Load(ctx context.Context) ([]Record, error) {
	recs, gen, ok := c.snapshot()
	if ok {
		metrics.SheetCache.WithLabelValues("hit").Inc()
		c.log.Debug("📦 Using cached attendance records", zap.Int("count", len(recs)))
		return slices.Clone(recs), nil
	}
	metrics.SheetCache.WithLabelValues("miss").Inc()

	v, err, _ := c.sf.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 20*time.Second)
		defer cancel()

		c.log.Debug("📥 Fetching attendance records from spreadsheet...")
		fetched, err := c.store.FetchAll(fctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// invalidate terjadi selama fetch → hasil ini sudah basi, jangan disimpan
		if c.gen == gen {
			c.records = fetched
			c.cachedAt = c.now()
			c.valid = true
			c.log.Debug("📦 Cached attendance records", zap.Int("count", len(fetched)))
		}
		return fetched, nil
	})
	if err != nil {
		metrics.SheetCache.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}
	return slices.Clone(v.([]Record)), nil
}

// GetAll: gagal fetch → slice kosong (dicatat di log), bukan error.
func (c *RecordCache) GetAll(ctx context.Context) []Record {
	recs, err := c.Load(ctx)
	if err != nil {
		c.log.Error("❌ Error fetching attendance records", zap.Error(err))
		return []Record{}
	}
	return recs
}

// Invalidate idempotent, aman dipanggil berulang.
func (c *RecordCache) Invalidate() {
	c.mu.Lock()
	c.records = nil
	c.valid = false
	c.gen++
	c.mu.Unlock()
	c.log.Debug("📦 Attendance cache invalidated")
}

// Append menulis ke store lalu invalidasi.
func (c *RecordCache) Append(ctx context.Context, rec Record) error {
	if err := c.store.Append(ctx, rec); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// UpdateRow menulis ke store lalu invalidasi.
func (c *RecordCache) UpdateRow(ctx context.Context, row int, upd RowUpdate) error {
	if err := c.store.UpdateRow(ctx, row, upd); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// FindByNIKOnDate mencari record milik nik di tanggal dateKey (YYYY-MM-DD).
func FindByNIKOnDate(records []Record, nik, dateKey string, loc *time.Location) (Record, bool) {
	for _, r := range records {
		if r.NIK == nik && r.DateKey(loc) == dateKey {
			return r, true
		}
	}
	return Record{}, false
}
