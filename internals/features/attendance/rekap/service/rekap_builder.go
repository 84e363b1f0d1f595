// file: internals/features/attendance/rekap/service/rekap_builder.go
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"absensi_bot/internals/features/attendance/jadwal"
	"absensi_bot/internals/features/attendance/sheets"
	"absensi_bot/internals/helpers/dbtime"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Kind: jenis rekap.
type Kind string

const (
	KindHarian   Kind = "harian"
	KindMingguan Kind = "mingguan"
	KindBulanan  Kind = "bulanan"
)

var AllKinds = []Kind{KindHarian, KindMingguan, KindBulanan}

// ParseKind menerima "harian" / "HARIAN" / "rekapharian".
func ParseKind(s string) (Kind, bool) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "rekap")
	for _, k := range AllKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

func (k Kind) Title() string { return "Rekap " + cases.Title(language.Indonesian).String(string(k)) }

func (k Kind) periode() string {
	switch k {
	case KindMingguan:
		return "minggu ini"
	case KindBulanan:
		return "bulan ini"
	default:
		return "hari ini"
	}
}

// EmptyMessage: balasan kalau tidak ada record di window.
func (k Kind) EmptyMessage() string {
	return "📭 <b>Belum ada data absensi " + k.periode() + ".</b>"
}

// ErrorMessage: balasan kalau rekap gagal dibangun (bukan kosong).
func (k Kind) ErrorMessage() string {
	return "❌ Terjadi kesalahan saat mengambil rekap " + string(k) + "."
}

// Window: harian = hari ini, mingguan = Sabtu s/d Jumat, bulanan = 16 s/d 15.
func (k Kind) Window(now time.Time) dbtime.DateRange {
	switch k {
	case KindMingguan:
		return dbtime.WeekRange(now)
	case KindBulanan:
		return dbtime.MonthRange(now)
	default:
		return dbtime.DayRange(now)
	}
}

// ================== REPORT ==================

type Tally struct {
	Nama   string `json:"nama"`
	Ontime int    `json:"ontime"`
	Telat  int    `json:"telat"`
}

func (t Tally) Total() int { return t.Ontime + t.Telat }

type UnitGroup struct {
	Unit    string  `json:"unit"`
	Members []Tally `json:"members"`
}

type Report struct {
	Kind   Kind             `json:"kind"`
	Range  dbtime.DateRange `json:"-"`
	Label  string           `json:"label"`
	Units  []UnitGroup      `json:"units"`
	Counts int              `json:"records"`
}

// Empty: valid tapi tidak ada record di window.
func (r *Report) Empty() bool { return r == nil || len(r.Units) == 0 }

// Text: format HTML Telegram.
func (r *Report) Text() string {
	upper := cases.Upper(language.Indonesian)
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📊 %s (%s)</b>\n\n", upper.String(r.Kind.Title()), r.Label)
	for _, g := range r.Units {
		fmt.Fprintf(&b, "🏷️ <b>%s</b>\n", upper.String(g.Unit))
		for _, m := range g.Members {
			if r.Kind == KindHarian {
				fmt.Fprintf(&b, "• %s\n", m.Nama)
				continue
			}
			detail := make([]string, 0, 3)
			if m.Ontime > 0 {
				detail = append(detail, fmt.Sprintf("Ontime: %d", m.Ontime))
			}
			if m.Telat > 0 {
				detail = append(detail, fmt.Sprintf("Telat: %d", m.Telat))
			}
			detail = append(detail, fmt.Sprintf("Total: %d", m.Total()))
			fmt.Fprintf(&b, "• <b>%s</b>\n  %s\n", m.Nama, strings.Join(detail, " | "))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// ================== BUILDER ==================

// RecordSource: versi ketat, outage spreadsheet harus jadi error (bukan rekap kosong).
type RecordSource interface {
	Load(ctx context.Context) ([]sheets.Record, error)
}

type Builder struct {
	records  RecordSource
	location *time.Location
	clock    dbtime.Clock
}

func NewBuilder(records RecordSource, loc *time.Location) *Builder {
	return &Builder{records: records, location: loc}
}

// WithClock (test).
func (b *Builder) WithClock(c dbtime.Clock) *Builder {
	b.clock = c
	return b
}

func (b *Builder) Now() time.Time { return b.clock.InZone(b.location) }

// Build: ambil snapshot record, saring per window, kelompokkan per unit → nama.
func (b *Builder) Build(ctx context.Context, kind Kind) (*Report, error) {
	now := b.Now()
	window := kind.Window(now)

	recs, err := b.records.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("rekap %s: %w", kind, err)
	}

	rep := &Report{Kind: kind, Range: window, Label: window.Label()}
	if kind == KindHarian {
		rep.Label = dbtime.FormatTanggalIndo(window.Start)
	}

	grouped := map[string]map[string]*Tally{}
	for _, rec := range recs {
		if !window.Contains(rec.DateKey(b.location)) {
			continue
		}
		byName, ok := grouped[rec.Unit]
		if !ok {
			byName = map[string]*Tally{}
			grouped[rec.Unit] = byName
		}
		t, ok := byName[rec.Nama]
		if !ok {
			t = &Tally{Nama: rec.Nama}
			byName[rec.Nama] = t
		}
		switch rec.Status {
		case jadwal.StatusOntime.String():
			t.Ontime++
		case jadwal.StatusTelat.String():
			t.Telat++
		}
		rep.Counts++
	}

	units := make([]string, 0, len(grouped))
	for u := range grouped {
		units = append(units, u)
	}
	sort.Strings(units)

	col := collate.New(language.Indonesian)
	for _, u := range units {
		g := UnitGroup{Unit: u, Members: make([]Tally, 0, len(grouped[u]))}
		for _, t := range grouped[u] {
			g.Members = append(g.Members, *t)
		}
		sort.SliceStable(g.Members, func(i, j int) bool {
			return col.CompareString(g.Members[i].Nama, g.Members[j].Nama) < 0
		})
		rep.Units = append(rep.Units, g)
	}
	return rep, nil
}
