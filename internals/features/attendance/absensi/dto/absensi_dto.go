// file: internals/features/attendance/absensi/dto/absensi_dto.go
package dto

import (
	"time"

	absensiModel "absensi_bot/internals/features/attendance/absensi/model"
	"absensi_bot/internals/features/attendance/jadwal"
	memberModel "absensi_bot/internals/features/users/members/model"
)

// ================== CHECK-IN ==================

// CheckInRequest: satu pesan absen dari Telegram.
type CheckInRequest struct {
	Handle      string `json:"handle" validate:"required"`
	ChatID      int64  `json:"chat_id" validate:"required"`
	Text        string `json:"text"`
	PhotoFileID string `json:"photo_file_id"`
	MessageID   int    `json:"message_id"`
}

type CheckInResult struct {
	Member    memberModel.Member            `json:"member"`
	Shift     jadwal.ShiftDefinition        `json:"-"`
	Status    jadwal.Status                 `json:"-"`
	At        time.Time                     `json:"at"`
	PhotoLink string                        `json:"photo_link"`
	Row       *absensiModel.AttendanceModel `json:"row,omitempty"`
}

// ================== VIEW ==================

// AttendanceView: absen hari ini (hasil /cekabsen), dari DB atau sheet.
type AttendanceView struct {
	Nama        string    `json:"nama"`
	Tanggal     time.Time `json:"tanggal"`
	JamAbsen    string    `json:"jam_absen"`
	JadwalMasuk string    `json:"jadwal_masuk"`
	Keterangan  string    `json:"keterangan"`
	Unit        string    `json:"unit"`
	Status      string    `json:"status"`
	LinkFoto    string    `json:"link_foto,omitempty"`

	// baris sheet (0 = tidak ketemu di sheet)
	SheetRow int                           `json:"sheet_row,omitempty"`
	DBRow    *absensiModel.AttendanceModel `json:"-"`
}

// ================== EDIT ADMIN ==================

type EditRequest struct {
	TargetHandle string `json:"target_handle" validate:"required"`
	Jadwal       string `json:"jadwal" validate:"required"`
}

type EditResult struct {
	Nama        string        `json:"nama"`
	Unit        string        `json:"unit"`
	JadwalMasuk string        `json:"jadwal_masuk"`
	Keterangan  string        `json:"keterangan"`
	Status      jadwal.Status `json:"-"`
	StatusLabel string        `json:"status"`
}

// ================== ADMIN API ==================

type ListQuery struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

type AttendanceResponse struct {
	ID               string `json:"id"`
	MemberID         string `json:"member_id"`
	Tanggal          string `json:"tanggal"`
	JamAbsen         string `json:"jam_absen"`
	JadwalMasuk      string `json:"jadwal_masuk"`
	Keterangan       string `json:"keterangan"`
	Status           string `json:"status"`
	UsernameTelegram string `json:"username_telegram"`
	PhotoURL         string `json:"photo_url,omitempty"`
}

func FromModel(m absensiModel.AttendanceModel) AttendanceResponse {
	photo := ""
	if m.AttendancePhotoURL != nil {
		photo = *m.AttendancePhotoURL
	}
	return AttendanceResponse{
		ID:               m.AttendanceID.String(),
		MemberID:         m.AttendanceMemberID.String(),
		Tanggal:          time.Time(m.AttendanceTanggal).Format("2006-01-02"),
		JamAbsen:         m.AttendanceJamAbsen,
		JadwalMasuk:      m.AttendanceJadwalMasuk,
		Keterangan:       m.AttendanceKeterangan,
		Status:           m.AttendanceStatus,
		UsernameTelegram: m.AttendanceUsernameTelegram,
		PhotoURL:         photo,
	}
}
