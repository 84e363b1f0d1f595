package seeds

import (
	"fmt"

	"absensi_bot/internals/seeds/shifts"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func RunAllSeeds(db *gorm.DB, log *zap.Logger) error {

	//* Jadwal (shift_settings + telegram_commands)
	res, err := shifts.SeedShiftsFromJSON(db, shifts.DefaultFile, log)
	if err != nil {
		return fmt.Errorf("seed shifts: %w", err)
	}
	log.Info("🌱 Seed selesai",
		zap.Int("shifts", res.ShiftsCreated),
		zap.Int("commands", res.CommandsCreated),
		zap.Int("skipped", res.Skipped),
	)
	return nil
}
