// file: internals/features/attendance/jadwal/shift.go
package jadwal

import (
	"fmt"

	memberModel "absensi_bot/internals/features/users/members/model"
	"absensi_bot/internals/helpers/dbtime"
)

// ShiftKind: varian tertutup jenis shift. String label DB hanya dipakai di boundary persistence.
type ShiftKind int

const (
	KindUnknown ShiftKind = iota
	KindPagi
	KindMalam
	KindPiketPagi
	KindPiketMalam
	KindPagiMalam
	KindLibur
	KindPiket
)

var kindCodes = map[ShiftKind]string{
	KindPagi:       "PAGI",
	KindMalam:      "MALAM",
	KindPiketPagi:  "PIKET_PAGI",
	KindPiketMalam: "PIKET_MALAM",
	KindPagiMalam:  "PAGI_MALAM",
	KindLibur:      "LIBUR",
	KindPiket:      "PIKET",
}

var kindLabels = map[ShiftKind]string{
	KindPagi:       "Pagi",
	KindMalam:      "Malam",
	KindPiketPagi:  "Piket Pagi",
	KindPiketMalam: "Piket Malam",
	KindPagiMalam:  "Pagi Malam",
	KindLibur:      "Libur",
	KindPiket:      "Piket",
}

// Code: label kolom shift_type / keterangan di DB.
func (k ShiftKind) Code() string { return kindCodes[k] }

func (k ShiftKind) String() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return "Unknown"
}

// ParseKindCode kebalikan dari Code().
func ParseKindCode(code string) (ShiftKind, error) {
	for k, c := range kindCodes {
		if c == code {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("shift type tidak dikenal: %q", code)
}

// Status absen.
type Status int

const (
	StatusOntime Status = iota
	StatusTelat
)

func (s Status) String() string {
	if s == StatusTelat {
		return "Telat"
	}
	return "Ontime"
}

// Code: label kolom status di DB.
func (s Status) Code() string {
	if s == StatusTelat {
		return "TELAT"
	}
	return "ONTIME"
}

func StatusOf(late bool) Status {
	if late {
		return StatusTelat
	}
	return StatusOntime
}

// ShiftDefinition: jam masuk/pulang/batas telat untuk satu keyword di satu unit.
// Jam kosong (nil) dipakai shift libur.
type ShiftDefinition struct {
	Unit      memberModel.Unit
	Keyword   string
	Kind      ShiftKind
	Label     string
	Start     *dbtime.Tod
	End       *dbtime.Tod
	LateAfter *dbtime.Tod
}

// Deadline: LateAfter, fallback ke Start. ok=false → tidak ada batas (selalu ontime).
func (d ShiftDefinition) Deadline() (dbtime.Tod, bool) {
	if d.LateAfter != nil {
		return *d.LateAfter, true
	}
	if d.Start != nil {
		return *d.Start, true
	}
	return dbtime.Tod{}, false
}

// JadwalLabel: "07:30-16:30 WIB" (kolom Jadwal Masuk).
func (d ShiftDefinition) JadwalLabel() string {
	if d.Start == nil || d.End == nil {
		return d.Label
	}
	return fmt.Sprintf("%s-%s WIB", d.Start, d.End)
}

// SheetNote: kolom Keterangan di spreadsheet. Pagi-Malam ditulis "Pagi".
func (d ShiftDefinition) SheetNote() string {
	if d.Kind == KindPagiMalam {
		return KindPagi.String()
	}
	return d.Label
}

func tod(s string) *dbtime.Tod {
	t := dbtime.MustParse(s)
	return &t
}
