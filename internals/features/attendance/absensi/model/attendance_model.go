// file: internals/features/attendance/absensi/model/attendance_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Asal absensi yang ditulis bot.
const SourceTelegramBot = "TELEGRAM_BOT"

// AttendanceModel: satu absen per member per tanggal (uq_attendances_member_tanggal).
// Hanya anggota dari tabel users (Daman) yang ditulis ke sini.
type AttendanceModel struct {
	AttendanceID       uuid.UUID      `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	AttendanceMemberID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_attendances_member_tanggal,priority:1;column:member_id" json:"member_id"`
	AttendanceTanggal  datatypes.Date `gorm:"type:date;not null;uniqueIndex:uq_attendances_member_tanggal,priority:2;index:idx_attendances_tanggal;column:tanggal" json:"tanggal"`

	// "07:31" (jam lokal unit)
	AttendanceJamAbsen    string `gorm:"type:varchar(8);not null;column:jam_absen" json:"jam_absen"`
	AttendanceJadwalMasuk string `gorm:"type:varchar(64);column:jadwal_masuk" json:"jadwal_masuk"`
	// kode shift: PAGI, MALAM, PIKET_PAGI, ...
	AttendanceKeterangan string `gorm:"type:varchar(32);not null;column:keterangan" json:"keterangan"`
	// ONTIME / TELAT
	AttendanceStatus string `gorm:"type:varchar(16);not null;column:status" json:"status"`

	AttendanceUsernameTelegram string  `gorm:"type:varchar(64);column:username_telegram" json:"username_telegram"`
	AttendanceSource           string  `gorm:"type:varchar(32);not null;default:TELEGRAM_BOT;column:source" json:"source"`
	AttendanceMessageID        *int64  `gorm:"column:telegram_message_id" json:"telegram_message_id,omitempty"`
	AttendanceChatID           *int64  `gorm:"column:telegram_chat_id" json:"telegram_chat_id,omitempty"`
	AttendancePhotoURL         *string `gorm:"type:text;column:photo_url" json:"photo_url,omitempty"`

	AttendanceCreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	AttendanceUpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (AttendanceModel) TableName() string { return "attendances" }
