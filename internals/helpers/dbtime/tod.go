// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Tod = time-of-day (jam dinding) tanpa tanggal & zona.
type Tod struct{ time.Time }

// From: bikin Tod dari time.Time (ambil HH:mm:ss, buang tanggal & zona)
func From(t time.Time) Tod {
	return Tod{
		Time: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC),
	}
}

// Parse: bikin Tod dari string "HH:mm[:ss]" atau "HH.mm" (format spreadsheet lama).
func Parse(s string) (Tod, error) {
	var tt Tod
	return tt, tt.parse(s)
}

// MustParse dipakai untuk konstanta jadwal yang fix.
func MustParse(s string) Tod {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Scan: terima time.Time atau string ("HH:MM[:SS]")
func (t *Tod) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*t = From(x)
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("tod: unsupported Scan type %T", v)
	}
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("tod: string kosong")
	}
	sep := ":"
	if !strings.Contains(s, ":") && strings.Contains(s, ".") {
		sep = "."
	}
	parts := strings.Split(s, sep)
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("tod: format tidak valid %q", s)
	}

	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("tod: format tidak valid %q: %w", s, err)
		}
		nums[i] = n
	}
	h, m, sec := nums[0], nums[1], nums[2]
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return fmt.Errorf("tod: di luar rentang %q", s)
	}
	t.Time = time.Date(0, 1, 1, h, m, sec, 0, time.UTC)
	return nil
}

// Minutes sejak 00:00 (detik diabaikan).
func (t Tod) Minutes() int { return t.Hour()*60 + t.Minute() }

// On menempelkan jam ini ke tanggal kalender milik ref (zona ref).
func (t Tod) On(ref time.Time) time.Time {
	y, mo, d := ref.Date()
	return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, ref.Location())
}

// String "HH:MM" (format yang dipakai kolom jadwal).
func (t Tod) String() string { return t.Format("15:04") }

// Value: kirim "HH:MM:SS" agar Postgres TIME paham
func (t Tod) Value() (driver.Value, error) {
	if t.Time.IsZero() {
		return "00:00:00", nil
	}
	return t.Format("15:04:05"), nil
}

func (t Tod) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(t.String())
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := sonic.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}
