// file: internals/features/users/members/service/directory.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	memberModel "absensi_bot/internals/features/users/members/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IdentityProvider: satu sumber identitas. (nil, nil) = tidak ditemukan.
type IdentityProvider interface {
	Name() string
	FindByHandle(ctx context.Context, handle string) (*memberModel.Member, error)
}

// Directory mencoba provider sesuai urutan; hasil pertama yang ketemu menang.
type Directory struct {
	providers []IdentityProvider
	log       *zap.Logger
}

func NewDirectory(log *zap.Logger, providers ...IdentityProvider) *Directory {
	return &Directory{providers: providers, log: log.Named("members")}
}

// NewDefaultDirectory: users (Daman) lalu telegram_users (SDI).
func NewDefaultDirectory(db *gorm.DB, log *zap.Logger) *Directory {
	return NewDirectory(log, NewUserProvider(db), NewTelegramUserProvider(db))
}

// NormalizeHandle memastikan username diawali '@'.
func NormalizeHandle(handle string) string {
	h := strings.TrimSpace(handle)
	if h == "" {
		return ""
	}
	if !strings.HasPrefix(h, "@") {
		h = "@" + h
	}
	return h
}

// Lookup → (nil, nil) kalau tidak ada di sumber manapun.
func (d *Directory) Lookup(ctx context.Context, handle string) (*memberModel.Member, error) {
	h := NormalizeHandle(handle)
	if h == "" || h == "@" {
		return nil, nil
	}
	for _, p := range d.providers {
		m, err := p.FindByHandle(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("lookup %s di %s: %w", h, p.Name(), err)
		}
		if m != nil {
			d.log.Debug("🔎 identitas ditemukan", zap.String("handle", h), zap.String("provider", p.Name()))
			return m, nil
		}
	}
	return nil, nil
}

// ================== PROVIDERS ==================

// UserProvider membaca tabel users (aktif saja) → unit Daman.
type UserProvider struct{ DB *gorm.DB }

func NewUserProvider(db *gorm.DB) *UserProvider { return &UserProvider{DB: db} }

func (p *UserProvider) Name() string { return "users" }

func (p *UserProvider) FindByHandle(ctx context.Context, handle string) (*memberModel.Member, error) {
	var row memberModel.UserModel
	err := p.DB.WithContext(ctx).
		Where("LOWER(username_telegram) = LOWER(?) AND is_active = ?", handle, true).
		Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &memberModel.Member{
		ID:               row.UserID,
		UsernameTelegram: handle,
		NIK:              row.UserNIK,
		Nama:             row.UserName,
		Unit:             memberModel.UnitDaman,
		Source:           memberModel.SourceUser,
	}, nil
}

// TelegramUserProvider membaca tabel telegram_users → unit sesuai kolom (default SDI).
type TelegramUserProvider struct{ DB *gorm.DB }

func NewTelegramUserProvider(db *gorm.DB) *TelegramUserProvider {
	return &TelegramUserProvider{DB: db}
}

func (p *TelegramUserProvider) Name() string { return "telegram_users" }

func (p *TelegramUserProvider) FindByHandle(ctx context.Context, handle string) (*memberModel.Member, error) {
	var row memberModel.TelegramUserModel
	err := p.DB.WithContext(ctx).
		Where("LOWER(username_telegram) = LOWER(?)", handle).
		Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	unit := memberModel.Unit(row.TelegramUserUnit)
	if unit == "" {
		unit = memberModel.UnitSDI
	}
	return &memberModel.Member{
		ID:               row.TelegramUserID,
		UsernameTelegram: handle,
		NIK:              row.TelegramUserNIK,
		Nama:             row.TelegramUserNama,
		Unit:             unit,
		Source:           memberModel.SourceTelegramUser,
	}, nil
}
