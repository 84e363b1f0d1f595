// file: internals/features/attendance/jadwal/model/jadwal_model.go
package model

import (
	"time"

	"absensi_bot/internals/helpers/dbtime"

	"github.com/google/uuid"
)

// ShiftSettingModel: jam kerja per jenis shift (dipakai unit Daman).
type ShiftSettingModel struct {
	ShiftSettingID        uuid.UUID   `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	ShiftSettingType      string      `gorm:"type:varchar(32);not null;uniqueIndex;column:shift_type" json:"shift_type"`
	ShiftSettingName      string      `gorm:"type:varchar(64);not null;column:name" json:"name"`
	ShiftSettingStartTime *dbtime.Tod `gorm:"type:time;column:start_time" json:"start_time,omitempty"`
	ShiftSettingEndTime   *dbtime.Tod `gorm:"type:time;column:end_time" json:"end_time,omitempty"`
	ShiftSettingLateAfter *dbtime.Tod `gorm:"type:time;column:late_after" json:"late_after,omitempty"`
	ShiftSettingCommand   *string     `gorm:"type:varchar(32);column:telegram_command" json:"telegram_command,omitempty"`
	ShiftSettingColor     *string     `gorm:"type:varchar(16);column:color" json:"color,omitempty"`

	ShiftSettingCreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ShiftSettingUpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ShiftSettingModel) TableName() string { return "shift_settings" }

// TelegramCommandModel: keyword yang valid per unit → shift setting.
type TelegramCommandModel struct {
	TelegramCommandID       uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	TelegramCommandUnit     string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_telegram_commands_unit_command;column:unit" json:"unit"`
	TelegramCommandCommand  string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_telegram_commands_unit_command;column:command" json:"command"`
	TelegramCommandShiftID  uuid.UUID `gorm:"type:uuid;not null;index;column:shift_setting_id" json:"shift_setting_id"`
	TelegramCommandIsActive bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`

	ShiftSetting *ShiftSettingModel `gorm:"foreignKey:TelegramCommandShiftID;references:ShiftSettingID" json:"shift_setting,omitempty"`

	TelegramCommandCreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	TelegramCommandUpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (TelegramCommandModel) TableName() string { return "telegram_commands" }
