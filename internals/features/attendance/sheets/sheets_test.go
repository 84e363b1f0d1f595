package sheets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func wib(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

// fakeStore: Store di memori, menghitung FetchAll.
type fakeStore struct {
	mu      sync.Mutex
	rows    []Record
	fetches int
	fail    error
	updates map[int]RowUpdate
}

func (f *fakeStore) Append(_ context.Context, r Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	r.Row = len(f.rows) + 2
	f.rows = append(f.rows, r)
	return nil
}

func (f *fakeStore) FetchAll(context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]Record(nil), f.rows...), nil
}

func (f *fakeStore) UpdateRow(_ context.Context, row int, upd RowUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[int]RowUpdate{}
	}
	f.updates[row] = upd
	return nil
}

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func TestParseWaktuIsDayFirst(t *testing.T) {
	loc := wib(t)

	got, err := ParseWaktu("06/01/2026 7:05:09", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 6, 7, 5, 9, 0, loc), got, "06/01 = 6 Januari, bukan 1 Juni")

	got, err = ParseWaktu("18/12/2025 16:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 18, 16, 30, 0, 0, loc), got)

	got, err = ParseWaktu("2025-12-18", loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-18", got.Format("2006-01-02"))

	for _, bad := range []string{"", "kemarin", "31/02/2026 08:00", "12/13/2026 08:00"} {
		_, err := ParseWaktu(bad, loc)
		assert.Error(t, err, bad)
	}
}

func TestEncodeDecodeRow(t *testing.T) {
	loc := wib(t)
	rec := Record{
		Waktu: time.Date(2026, 1, 6, 7, 31, 0, 0, loc), NIK: "20900289", Nama: "Nanang",
		JadwalMasuk: "07:30-17:00 WIB", Keterangan: "Pagi", LinkFoto: "https://x/y.jpg",
		JamAbsen: "07:31", Status: "Ontime", Unit: "SDI", Bulan: "January 2026",
	}
	row := EncodeRow(rec, loc)
	require.Len(t, row, NumColumns)
	assert.Equal(t, "06/01/2026 07:31:00", row[ColWaktu])

	header := []interface{}{"Waktu", "NIK", "Nama", "Jadwal Masuk", "Keterangan", "Link Foto", "Jam Absen", "Status", "Unit", "Bulan"}
	short := []interface{}{"06/01/2026 08:00", "1", "Pendek"}
	broken := []interface{}{"bukan tanggal", "2", "X", "", "", "", "", "", "SDI"}
	recs := DecodeRows([][]interface{}{header, row, short, broken}, loc)

	require.Len(t, recs, 1)
	got := recs[0]
	assert.Equal(t, 2, got.Row)
	got.Row = 0
	assert.Equal(t, rec, got)
	assert.Equal(t, "2026-01-06", got.DateKey(loc))
}

func TestCacheServesWithinTTLAndRefetchesAfter(t *testing.T) {
	store := &fakeStore{rows: []Record{{NIK: "1"}}}
	base := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)
	now := base
	c := NewRecordCache(store, 3*time.Minute, zap.NewNop()).WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.Len(t, c.GetAll(ctx), 1)
	assert.Equal(t, 1, store.fetchCount())

	now = base.Add(3*time.Minute - time.Millisecond)
	c.GetAll(ctx)
	assert.Equal(t, 1, store.fetchCount(), "TTL-1ms masih dari cache")

	now = base.Add(3*time.Minute + time.Millisecond)
	c.GetAll(ctx)
	assert.Equal(t, 2, store.fetchCount(), "TTL+1ms harus refetch")
}

func TestInvalidateIsIdempotent(t *testing.T) {
	store := &fakeStore{rows: []Record{{NIK: "1"}}}
	c := NewRecordCache(store, time.Minute, zap.NewNop())
	c.GetAll(context.Background())

	for i := 0; i < 2; i++ {
		c.Invalidate()
		c.mu.RLock()
		assert.False(t, c.valid)
		assert.Nil(t, c.records)
		c.mu.RUnlock()
	}

	c.GetAll(context.Background())
	assert.Equal(t, 2, store.fetchCount())
}

func TestWritesInvalidate(t *testing.T) {
	store := &fakeStore{}
	c := NewRecordCache(store, time.Hour, zap.NewNop())
	ctx := context.Background()

	assert.Empty(t, c.GetAll(ctx))
	require.NoError(t, c.Append(ctx, Record{NIK: "7"}))
	recs := c.GetAll(ctx)
	require.Len(t, recs, 1, "record baru langsung terlihat setelah append")

	require.NoError(t, c.UpdateRow(ctx, recs[0].Row, RowUpdate{Status: "Telat"}))
	assert.Equal(t, RowUpdate{Status: "Telat"}, store.updates[recs[0].Row])
	c.GetAll(ctx)
	assert.Equal(t, 3, store.fetchCount())
}

func TestGetAllSwallowsFailureButLoadDoesNot(t *testing.T) {
	store := &fakeStore{fail: errors.New("googleapi: Error 503")}
	c := NewRecordCache(store, time.Minute, zap.NewNop())
	ctx := context.Background()

	recs := c.GetAll(ctx)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	_, err := c.Load(ctx)
	assert.ErrorIs(t, err, ErrFetchFailure)
}

// fetch yang mulai sebelum Invalidate tidak boleh menimpa cache.
type blockingStore struct {
	fakeStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingStore) FetchAll(ctx context.Context) ([]Record, error) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.started)
		<-b.release
	}
	return b.fakeStore.FetchAll(ctx)
}

func TestFetchStartedBeforeInvalidateIsNotStored(t *testing.T) {
	store := &blockingStore{
		fakeStore: fakeStore{rows: []Record{{NIK: "lama"}}},
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	c := NewRecordCache(store, time.Hour, zap.NewNop())
	ctx := context.Background()

	done := make(chan []Record)
	go func() { done <- c.GetAll(ctx) }()
	<-store.started

	c.Invalidate()
	close(store.release)
	<-done

	c.mu.RLock()
	valid := c.valid
	c.mu.RUnlock()
	assert.False(t, valid, "hasil fetch generasi lama dibuang")
}

func TestFindByNIKOnDate(t *testing.T) {
	loc := wib(t)
	recs := []Record{
		{NIK: "1", Waktu: time.Date(2026, 1, 5, 23, 0, 0, 0, loc)},
		{NIK: "1", Waktu: time.Date(2026, 1, 6, 0, 30, 0, 0, loc), Row: 9},
	}
	got, ok := FindByNIKOnDate(recs, "1", "2026-01-06", loc)
	require.True(t, ok)
	assert.Equal(t, 9, got.Row)

	_, ok = FindByNIKOnDate(recs, "2", "2026-01-06", loc)
	assert.False(t, ok)
}
