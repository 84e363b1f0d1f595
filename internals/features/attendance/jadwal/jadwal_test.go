package jadwal

import (
	"context"
	"testing"
	"time"

	jadwalModel "absensi_bot/internals/features/attendance/jadwal/model"
	memberModel "absensi_bot/internals/features/users/members/model"
	"absensi_bot/internals/helpers/dbtime"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func wib(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func TestNormalizeVariantsCollapse(t *testing.T) {
	variants := []string{"/piketpagi", "/piket_pagi", " /PIKET_PAGI ", "/Piket Pagi", "/piketpagi@AbsensiBot"}
	for _, v := range variants {
		assert.Equal(t, "/piketpagi", Normalize(v), v)
	}
}

func TestMatchKeywordLongestFirst(t *testing.T) {
	kw, ok := MatchKeyword("/morning-night foo", []string{"/morning", "/morning-night"})
	require.True(t, ok)
	assert.Equal(t, "/morning-night", kw)

	kw, ok = MatchKeyword("/pagi_malam hadir", []string{"/pagi", "/malam", "/pagimalam"})
	require.True(t, ok)
	assert.Equal(t, "/pagimalam", kw)

	kw, ok = MatchKeyword("/pagi@AbsensiBot", []string{"/pagimalam", "/pagi"})
	require.True(t, ok)
	assert.Equal(t, "/pagi", kw)
}

func TestMatchKeywordRejectsTyposAndEmpty(t *testing.T) {
	cands := []string{"/pagi", "/piket", "/piketpagi"}
	for _, text := range []string{"", "   ", "/pagix", "/pik", "halo /pagi"} {
		_, ok := MatchKeyword(text, cands)
		assert.False(t, ok, text)
	}
	assert.True(t, LooksLikeKeyword("/pagii", cands))
	assert.True(t, LooksLikeKeyword("/pik", cands))
	assert.False(t, LooksLikeKeyword("/start", cands))
	assert.False(t, LooksLikeKeyword("pagi", cands))
}

func TestIsLateIsStrict(t *testing.T) {
	loc := wib(t)
	deadline := dbtime.MustParse("07:36")

	assert.False(t, IsLate(time.Date(2026, 1, 6, 7, 35, 59, 0, loc), deadline))
	assert.False(t, IsLate(time.Date(2026, 1, 6, 7, 36, 0, 0, loc), deadline), "tepat di batas masih ontime")
	assert.True(t, IsLate(time.Date(2026, 1, 6, 7, 36, 0, 1, loc), deadline))
	assert.True(t, IsLate(time.Date(2026, 1, 6, 9, 0, 0, 0, loc), deadline))
}

func TestIsLateByClockTreatsEqualAsLate(t *testing.T) {
	deadline := dbtime.MustParse("08:06")

	late, err := IsLateByClock("8:06", deadline)
	require.NoError(t, err)
	assert.True(t, late, "admin recompute: jam sama dengan batas = telat")

	late, err = IsLateByClock("08:05", deadline)
	require.NoError(t, err)
	assert.False(t, late)

	late, err = IsLateByClock("08.30", deadline)
	require.NoError(t, err)
	assert.True(t, late)

	_, err = IsLateByClock("jam 8", deadline)
	assert.Error(t, err)
}

// Dua komparator sengaja berbeda di titik batas: dicek terpisah supaya tidak diam-diam disatukan.
func TestComparatorsDisagreeExactlyAtDeadline(t *testing.T) {
	loc := wib(t)
	deadline := dbtime.MustParse("07:36")
	at := time.Date(2026, 1, 6, 7, 36, 0, 0, loc)

	byTime := IsLate(at, deadline)
	byClock, err := IsLateByClock(dbtime.FormatJam(at), deadline)
	require.NoError(t, err)
	assert.NotEqual(t, byTime, byClock)
}

func TestEvaluateFallsBackToStartThenOntime(t *testing.T) {
	loc := wib(t)
	at := time.Date(2026, 1, 6, 7, 45, 0, 0, loc)

	withStartOnly := ShiftDefinition{Kind: KindPagi, Start: tod("07:30")}
	assert.Equal(t, StatusTelat, Evaluate(withStartOnly, at))

	libur := ShiftDefinition{Kind: KindLibur, Label: "Libur"}
	assert.Equal(t, StatusOntime, Evaluate(libur, at))
	assert.Equal(t, "Libur", libur.JadwalLabel())

	st, err := Reevaluate(libur, "23:00")
	require.NoError(t, err)
	assert.Equal(t, StatusOntime, st)
}

func TestShiftDefinitionLabels(t *testing.T) {
	d := ShiftDefinition{Kind: KindPagiMalam, Label: "Pagi Malam", Start: tod("07:30"), End: tod("23:59")}
	assert.Equal(t, "07:30-23:59 WIB", d.JadwalLabel())
	assert.Equal(t, "Pagi", d.SheetNote())
	assert.Equal(t, "PAGI_MALAM", d.Kind.Code())

	k, err := ParseKindCode("PIKET_MALAM")
	require.NoError(t, err)
	assert.Equal(t, KindPiketMalam, k)
	_, err = ParseKindCode("SIANG")
	assert.Error(t, err)
}

func TestSDICatalog(t *testing.T) {
	ctx := context.Background()
	c := SDICatalog()

	for _, v := range []string{"/pagi", "/PAGI", " /pagi@bot"} {
		d, err := c.Resolve(ctx, v)
		require.NoError(t, err, v)
		assert.Equal(t, "07:30-17:00 WIB", d.JadwalLabel())
		assert.Equal(t, "07:36", d.LateAfter.String())
	}

	d, err := c.Resolve(ctx, "/piket")
	require.NoError(t, err)
	assert.Equal(t, KindPiket, d.Kind)
	assert.Equal(t, "08:06", d.LateAfter.String())

	_, err = c.Resolve(ctx, "/malam")
	assert.ErrorIs(t, err, ErrUnknownKeyword)
}

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&jadwalModel.ShiftSettingModel{}, &jadwalModel.TelegramCommandModel{}))

	pagi := jadwalModel.ShiftSettingModel{
		ShiftSettingID: uuid.New(), ShiftSettingType: "PAGI", ShiftSettingName: "Pagi",
		ShiftSettingStartTime: tod("07:30"), ShiftSettingEndTime: tod("16:30"), ShiftSettingLateAfter: tod("07:35"),
	}
	piketPagi := jadwalModel.ShiftSettingModel{
		ShiftSettingID: uuid.New(), ShiftSettingType: "PIKET_PAGI", ShiftSettingName: "Piket Pagi",
		ShiftSettingStartTime: tod("08:00"), ShiftSettingEndTime: tod("16:00"), ShiftSettingLateAfter: tod("08:05"),
	}
	require.NoError(t, db.Create(&[]jadwalModel.ShiftSettingModel{pagi, piketPagi}).Error)
	require.NoError(t, db.Create(&[]jadwalModel.TelegramCommandModel{
		{TelegramCommandID: uuid.New(), TelegramCommandUnit: "Daman", TelegramCommandCommand: "/pagi", TelegramCommandShiftID: pagi.ShiftSettingID, TelegramCommandIsActive: true},
		{TelegramCommandID: uuid.New(), TelegramCommandUnit: "Daman", TelegramCommandCommand: "/piketpagi", TelegramCommandShiftID: piketPagi.ShiftSettingID, TelegramCommandIsActive: true},
	}).Error)
	return db
}

func TestDBCatalogResolvesUnderscoreVariants(t *testing.T) {
	db := newCatalogDB(t)
	c := NewDBCatalog(db, memberModel.UnitDaman)
	ctx := context.Background()

	a, err := c.Resolve(ctx, "/piket_pagi")
	require.NoError(t, err)
	b, err := c.Resolve(ctx, "/PiketPagi")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, KindPiketPagi, a.Kind)
	assert.Equal(t, "08:00-16:00 WIB", a.JadwalLabel())
	assert.Equal(t, "08:05", a.LateAfter.String())

	_, err = c.Resolve(ctx, "/malam")
	assert.ErrorIs(t, err, ErrUnknownKeyword)

	kws, err := c.Keywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/pagi", "/piketpagi"}, kws)
}

func TestRegistryHasNoCrossUnitLeakage(t *testing.T) {
	db := newCatalogDB(t)
	reg := NewRegistry().
		Register(memberModel.UnitDaman, NewDBCatalog(db, memberModel.UnitDaman)).
		Register(memberModel.UnitSDI, SDICatalog())
	ctx := context.Background()

	// /piket hanya milik SDI
	_, err := reg.Resolve(ctx, memberModel.UnitDaman, "/piket")
	assert.ErrorIs(t, err, ErrUnknownKeyword)
	// /piketpagi hanya milik Daman
	_, err = reg.Resolve(ctx, memberModel.UnitSDI, "/piketpagi")
	assert.ErrorIs(t, err, ErrUnknownKeyword)
	// unit tak terdaftar
	_, err = reg.Resolve(ctx, memberModel.Unit("Lain"), "/pagi")
	assert.ErrorIs(t, err, ErrUnknownKeyword)

	// keyword sama, definisi beda per unit
	daman, err := reg.Resolve(ctx, memberModel.UnitDaman, "/pagi")
	require.NoError(t, err)
	sdi, err := reg.Resolve(ctx, memberModel.UnitSDI, "/pagi")
	require.NoError(t, err)
	assert.Equal(t, "07:35", daman.LateAfter.String())
	assert.Equal(t, "07:36", sdi.LateAfter.String())

	all, err := reg.AllKeywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/pagi", "/piket", "/piketpagi"}, all)
}
