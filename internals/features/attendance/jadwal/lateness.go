// file: internals/features/attendance/jadwal/lateness.go
package jadwal

import (
	"fmt"
	"time"

	"absensi_bot/internals/helpers/dbtime"
)

// IsLate dipakai saat absen: telat hanya kalau checkIn LEWAT dari deadline (strict >).
// checkIn harus sudah di zona lokal unit.
func IsLate(checkIn time.Time, deadline dbtime.Tod) bool {
	return checkIn.After(deadline.On(checkIn))
}

// IsLateByClock dipakai saat admin hitung ulang dari kolom jam absen ("8:02").
// Di sini jam yang SAMA dengan batas sudah dihitung telat (>=), beda dengan IsLate.
func IsLateByClock(jamAbsen string, lateAfter dbtime.Tod) (bool, error) {
	jam, err := dbtime.Parse(jamAbsen)
	if err != nil {
		return false, fmt.Errorf("jam absen tidak valid %q: %w", jamAbsen, err)
	}
	return jam.Minutes() >= lateAfter.Minutes(), nil
}

// Evaluate: status untuk check-in pada definisi shift tertentu.
func Evaluate(def ShiftDefinition, checkIn time.Time) Status {
	deadline, ok := def.Deadline()
	if !ok {
		return StatusOntime
	}
	return StatusOf(IsLate(checkIn, deadline))
}

// Reevaluate: versi admin (string jam absen, >=).
func Reevaluate(def ShiftDefinition, jamAbsen string) (Status, error) {
	deadline, ok := def.Deadline()
	if !ok {
		return StatusOntime, nil
	}
	late, err := IsLateByClock(jamAbsen, deadline)
	if err != nil {
		return StatusOntime, err
	}
	return StatusOf(late), nil
}
