package database

import (
	"context"
	"fmt"
	"time"

	"absensi_bot/internals/configs"
	absensiModel "absensi_bot/internals/features/attendance/absensi/model"
	jadwalModel "absensi_bot/internals/features/attendance/jadwal/model"
	memberModel "absensi_bot/internals/features/users/members/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB(cfg configs.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	log.Info("🔌 Koneksi ke PostgreSQL...", zap.String("host", cfg.Host), zap.String("db", cfg.Name))

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // PgBouncer (transaction pooling)
	}), &gorm.Config{Logger: configs.NewGormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("gagal konek DB: %w", err)
	}
	log.Info("✅ DB connected.")
	return db, nil
}

func TunePool(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("pool tune err", zap.Error(err))
		return
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// AutoMigrate hanya untuk dev; produksi memakai skema yang sudah ada.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&memberModel.UserModel{},
		&memberModel.TelegramUserModel{},
		&jadwalModel.ShiftSettingModel{},
		&jadwalModel.TelegramCommandModel{},
		&absensiModel.AttendanceModel{},
	)
}

func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database tidak dikonfigurasi")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
