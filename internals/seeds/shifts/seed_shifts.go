package shifts

import (
	"errors"
	"fmt"
	"os"

	jadwalModel "absensi_bot/internals/features/attendance/jadwal/model"
	"absensi_bot/internals/helpers/dbtime"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultFile = "internals/seeds/shifts/data_shift_settings.json"

type ShiftSeed struct {
	ShiftType       string      `json:"shift_type"`
	Name            string      `json:"name"`
	StartTime       *dbtime.Tod `json:"start_time"`
	EndTime         *dbtime.Tod `json:"end_time"`
	LateAfter       *dbtime.Tod `json:"late_after"`
	TelegramCommand *string     `json:"telegram_command"`
	Color           *string     `json:"color"`
}

type CommandSeed struct {
	Unit      string `json:"unit"`
	Command   string `json:"command"`
	ShiftType string `json:"shift_type"`
}

type SeedFile struct {
	ShiftSettings    []ShiftSeed   `json:"shift_settings"`
	TelegramCommands []CommandSeed `json:"telegram_commands"`
}

type Result struct {
	ShiftsCreated   int
	CommandsCreated int
	Skipped         int
}

// SeedShiftsFromJSON: insert-if-missing, data yang sudah ada tidak ditimpa.
func SeedShiftsFromJSON(db *gorm.DB, filePath string, log *zap.Logger) (Result, error) {
	log.Info("📥 Membaca file seed", zap.String("file", filePath))

	content, err := os.ReadFile(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("baca file seed: %w", err)
	}
	var data SeedFile
	if err := sonic.Unmarshal(content, &data); err != nil {
		return Result{}, fmt.Errorf("decode seed JSON: %w", err)
	}
	return Seed(db, data, log)
}

func Seed(db *gorm.DB, data SeedFile, log *zap.Logger) (Result, error) {
	var res Result
	err := db.Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uuid.UUID, len(data.ShiftSettings))

		for _, s := range data.ShiftSettings {
			var existing jadwalModel.ShiftSettingModel
			err := tx.Where("shift_type = ?", s.ShiftType).Take(&existing).Error
			if err == nil {
				log.Info("⏭️ Shift sudah ada, lewati", zap.String("shift", s.Name))
				ids[s.ShiftType] = existing.ShiftSettingID
				res.Skipped++
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cek shift %s: %w", s.ShiftType, err)
			}

			row := jadwalModel.ShiftSettingModel{
				ShiftSettingID:        uuid.New(),
				ShiftSettingType:      s.ShiftType,
				ShiftSettingName:      s.Name,
				ShiftSettingStartTime: s.StartTime,
				ShiftSettingEndTime:   s.EndTime,
				ShiftSettingLateAfter: s.LateAfter,
				ShiftSettingCommand:   s.TelegramCommand,
				ShiftSettingColor:     s.Color,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert shift %s: %w", s.ShiftType, err)
			}
			log.Info("✅ Shift dibuat", zap.String("shift", s.Name))
			ids[s.ShiftType] = row.ShiftSettingID
			res.ShiftsCreated++
		}

		for _, c := range data.TelegramCommands {
			shiftID, ok := ids[c.ShiftType]
			if !ok {
				return fmt.Errorf("command %s/%s: shift %s tidak ada", c.Unit, c.Command, c.ShiftType)
			}

			var n int64
			if err := tx.Model(&jadwalModel.TelegramCommandModel{}).
				Where("unit = ? AND command = ?", c.Unit, c.Command).
				Count(&n).Error; err != nil {
				return fmt.Errorf("cek command %s/%s: %w", c.Unit, c.Command, err)
			}
			if n > 0 {
				res.Skipped++
				continue
			}

			row := jadwalModel.TelegramCommandModel{
				TelegramCommandID:       uuid.New(),
				TelegramCommandUnit:     c.Unit,
				TelegramCommandCommand:  c.Command,
				TelegramCommandShiftID:  shiftID,
				TelegramCommandIsActive: true,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert command %s/%s: %w", c.Unit, c.Command, err)
			}
			log.Info("✅ Command dibuat", zap.String("unit", c.Unit), zap.String("command", c.Command))
			res.CommandsCreated++
		}
		return nil
	})
	return res, err
}
