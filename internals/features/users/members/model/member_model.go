// file: internals/features/users/members/model/member_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Unit organisasi. Tiap unit punya sumber identitas & kosakata shift sendiri.
type Unit string

const (
	UnitDaman Unit = "Daman"
	UnitSDI   Unit = "SDI"
)

// Source: tabel asal identitas. Hanya SourceUser yang ikut ditulis ke tabel attendances.
type Source string

const (
	SourceUser         Source = "USER"
	SourceTelegramUser Source = "TELEGRAM_USER"
)

// Member = identitas yang boleh absen (hasil lookup by username Telegram).
type Member struct {
	ID               uuid.UUID `json:"id"`
	UsernameTelegram string    `json:"username_telegram"`
	NIK              string    `json:"nik"`
	Nama             string    `json:"nama"`
	Unit             Unit      `json:"unit"`
	Source           Source    `json:"source"`
}

// Primary: identitas dari sumber utama → ditulis juga ke DB relasional.
func (m Member) Primary() bool { return m.Source == SourceUser }

// ================== TABEL ==================

// UserModel: anggota Daman (sumber utama).
type UserModel struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	UserNIK          string    `gorm:"type:varchar(32);not null;uniqueIndex;column:nik" json:"nik"`
	UserName         string    `gorm:"type:varchar(150);not null;column:name" json:"name"`
	UsernameTelegram *string   `gorm:"type:varchar(64);index:idx_users_username_telegram;column:username_telegram" json:"username_telegram,omitempty"`
	UserIsActive     bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`

	UserCreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UserUpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserModel) TableName() string { return "users" }

// TelegramUserModel: anggota SDI (sumber sekunder).
type TelegramUserModel struct {
	TelegramUserID   uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	UsernameTelegram string    `gorm:"type:varchar(64);not null;uniqueIndex;column:username_telegram" json:"username_telegram"`
	TelegramUserNIK  string    `gorm:"type:varchar(32);not null;column:nik" json:"nik"`
	TelegramUserNama string    `gorm:"type:varchar(150);not null;column:nama" json:"nama"`
	TelegramUserUnit string    `gorm:"type:varchar(32);not null;default:SDI;column:unit" json:"unit"`

	TelegramUserCreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	TelegramUserUpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (TelegramUserModel) TableName() string { return "telegram_users" }
