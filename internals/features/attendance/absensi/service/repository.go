// file: internals/features/attendance/absensi/service/repository.go
package service

import (
	"context"
	"errors"
	"fmt"

	absensiModel "absensi_bot/internals/features/attendance/absensi/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository: tabel attendances (hanya anggota sumber utama).
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository { return &Repository{DB: db} }

// FindByMemberOnDate → (nil, nil) kalau belum ada.
func (r *Repository) FindByMemberOnDate(ctx context.Context, memberID uuid.UUID, tanggal datatypes.Date) (*absensiModel.AttendanceModel, error) {
	var row absensiModel.AttendanceModel
	err := r.DB.WithContext(ctx).
		Where("member_id = ? AND tanggal = ?", memberID, tanggal).
		Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertThen: upsert by (member_id, tanggal) lalu jalankan after di transaksi yang sama.
// after gagal → rollback, baris DB tidak tertinggal.
func (r *Repository) UpsertThen(ctx context.Context, row *absensiModel.AttendanceModel, after func(ctx context.Context) error) error {
	if row.AttendanceID == uuid.Nil {
		row.AttendanceID = uuid.New()
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "member_id"}, {Name: "tanggal"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"jam_absen", "jadwal_masuk", "keterangan", "status",
				"username_telegram", "source", "telegram_message_id",
				"telegram_chat_id", "photo_url", "updated_at",
			}),
		}).Create(row).Error
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyAttended
			}
			return fmt.Errorf("upsert attendance: %w", err)
		}
		if after == nil {
			return nil
		}
		return after(ctx)
	})
}

// UpdateShift: jalur edit admin (keterangan + status), identitas & jam absen tetap.
func (r *Repository) UpdateShift(ctx context.Context, id uuid.UUID, jadwalMasuk, keterangan, status string) error {
	res := r.DB.WithContext(ctx).
		Model(&absensiModel.AttendanceModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"jadwal_masuk": jadwalMasuk,
			"keterangan":   keterangan,
			"status":       status,
		})
	if res.Error != nil {
		return fmt.Errorf("update attendance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByRange: absensi DB di rentang tanggal (admin API).
func (r *Repository) ListByRange(ctx context.Context, from, to datatypes.Date) ([]absensiModel.AttendanceModel, error) {
	var rows []absensiModel.AttendanceModel
	err := r.DB.WithContext(ctx).
		Where("tanggal BETWEEN ? AND ?", from, to).
		Order("tanggal ASC, jam_absen ASC").
		Find(&rows).Error
	return rows, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
