// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// DateKeyLayout dipakai untuk perbandingan tanggal kalender (urut secara string).
// SheetLayout = format kolom "Waktu" di spreadsheet.
const (
	DateKeyLayout = "2006-01-02"
	SheetLayout   = "02/01/2006 15:04:05"
	TanggalLayout = "02/01/2006"
	JamLayout     = "15:04"
	BulanLayout   = "January 2006"
)

var (
	bulanPendek  = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}
	bulanPanjang = [...]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"}
)

// LoadLocation:
// 1) nama zona dari config
// 2) Fallback: Asia/Jakarta
// 3) Fallback terakhir: time.UTC
func LoadLocation(name string) *time.Location {
	if s := strings.TrimSpace(name); s != "" {
		if loc, err := time.LoadLocation(s); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation("Asia/Jakarta"); err == nil {
		return loc
	}
	return time.UTC
}

// Clock bisa diganti di test.
type Clock func() time.Time

// InZone membungkus clock supaya selalu mengembalikan waktu di loc.
func (c Clock) InZone(loc *time.Location) time.Time {
	if c == nil {
		return time.Now().In(loc)
	}
	return c().In(loc)
}

// DateKey: tanggal kalender lokal (YYYY-MM-DD) dari t di zona loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateKeyLayout)
}

// StartOfDay: jam 00:00 di zona t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateOnly mengubah tanggal lokal menjadi datatypes.Date (tengah malam UTC),
// supaya kolom DATE tidak bergeser karena konversi zona.
func DateOnly(t time.Time, loc *time.Location) datatypes.Date {
	y, m, d := t.In(loc).Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func FormatTanggal(t time.Time) string { return t.Format(TanggalLayout) }
func FormatJam(t time.Time) string     { return t.Format(JamLayout) }
func FormatBulan(t time.Time) string   { return t.Format(BulanLayout) }
func FormatSheet(t time.Time) string   { return t.Format(SheetLayout) }

// FormatTanggalIndo: "18 Des 2025"
func FormatTanggalIndo(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), bulanPendek[t.Month()-1], t.Year())
}

// FormatTanggalFull: "18 Desember 2025"
func FormatTanggalFull(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), bulanPanjang[t.Month()-1], t.Year())
}

// ================== WINDOW REKAP ==================

// DateRange: rentang tanggal kalender inklusif [Start, End], keduanya tengah malam lokal.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains membandingkan DateKey (string), bukan timestamp.
func (r DateRange) Contains(dateKey string) bool {
	return dateKey >= r.Start.Format(DateKeyLayout) && dateKey <= r.End.Format(DateKeyLayout)
}

func (r DateRange) Label() string {
	return FormatTanggalIndo(r.Start) + " - " + FormatTanggalIndo(r.End)
}

// DayRange: satu hari.
func DayRange(t time.Time) DateRange {
	d := StartOfDay(t)
	return DateRange{Start: d, End: d}
}

// WeekRange: Sabtu s/d Jumat yang memuat t.
func WeekRange(t time.Time) DateRange {
	offset := (int(t.Weekday()) + 1) % 7 // Sabtu → 0
	start := StartOfDay(t).AddDate(0, 0, -offset)
	return DateRange{Start: start, End: start.AddDate(0, 0, 6)}
}

// MonthRange: tanggal 16 s/d tanggal 15 bulan berikutnya yang memuat t.
func MonthRange(t time.Time) DateRange {
	y, m, d := t.Date()
	loc := t.Location()
	if d >= 16 {
		return DateRange{
			Start: time.Date(y, m, 16, 0, 0, 0, 0, loc),
			End:   time.Date(y, m+1, 15, 0, 0, 0, 0, loc),
		}
	}
	return DateRange{
		Start: time.Date(y, m-1, 16, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, 15, 0, 0, 0, 0, loc),
	}
}

// FormatUptime: "2 hari 3 jam 4 menit 5 detik" (unit nol dilewati, detik selalu tampil).
func FormatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%d hari ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%d jam ", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%d menit ", minutes)
	}
	fmt.Fprintf(&b, "%d detik", seconds)
	return b.String()
}
