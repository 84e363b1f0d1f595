// file: internals/features/attendance/jadwal/catalog.go
package jadwal

import (
	"context"
	"errors"
	"fmt"
	"sort"

	jadwalModel "absensi_bot/internals/features/attendance/jadwal/model"
	memberModel "absensi_bot/internals/features/users/members/model"

	"gorm.io/gorm"
)

var ErrUnknownKeyword = errors.New("keyword tidak terdaftar untuk unit ini")

// Catalog: sumber definisi shift untuk SATU unit.
type Catalog interface {
	Resolve(ctx context.Context, keyword string) (ShiftDefinition, error)
	Keywords(ctx context.Context) ([]string, error)
}

// ================== FIXED (SDI) ==================

// FixedCatalog: jadwal konstan, tidak dibaca dari DB.
type FixedCatalog struct {
	defs map[string]ShiftDefinition
}

func NewFixedCatalog(defs ...ShiftDefinition) *FixedCatalog {
	m := make(map[string]ShiftDefinition, len(defs))
	for _, d := range defs {
		d.Keyword = Normalize(d.Keyword)
		m[d.Keyword] = d
	}
	return &FixedCatalog{defs: m}
}

// SDICatalog: /pagi 07:30-17:00 (telat > 07:36), /piket 08:00-17:00 (telat > 08:06).
func SDICatalog() *FixedCatalog {
	return NewFixedCatalog(
		ShiftDefinition{
			Unit: memberModel.UnitSDI, Keyword: "/pagi", Kind: KindPagi, Label: "Pagi",
			Start: tod("07:30"), End: tod("17:00"), LateAfter: tod("07:36"),
		},
		ShiftDefinition{
			Unit: memberModel.UnitSDI, Keyword: "/piket", Kind: KindPiket, Label: "Piket",
			Start: tod("08:00"), End: tod("17:00"), LateAfter: tod("08:06"),
		},
	)
}

func (c *FixedCatalog) Resolve(_ context.Context, keyword string) (ShiftDefinition, error) {
	d, ok := c.defs[Normalize(keyword)]
	if !ok {
		return ShiftDefinition{}, ErrUnknownKeyword
	}
	return d, nil
}

func (c *FixedCatalog) Keywords(context.Context) ([]string, error) {
	out := make([]string, 0, len(c.defs))
	for k := range c.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// ================== DB (Daman) ==================

// DBCatalog membaca telegram_commands + shift_settings untuk satu unit.
type DBCatalog struct {
	DB   *gorm.DB
	Unit memberModel.Unit
}

func NewDBCatalog(db *gorm.DB, unit memberModel.Unit) *DBCatalog {
	return &DBCatalog{DB: db, Unit: unit}
}

func (c *DBCatalog) Resolve(ctx context.Context, keyword string) (ShiftDefinition, error) {
	var cmd jadwalModel.TelegramCommandModel
	err := c.DB.WithContext(ctx).
		Preload("ShiftSetting").
		Where("unit = ? AND command = ? AND is_active = ?", string(c.Unit), Normalize(keyword), true).
		Limit(1).Take(&cmd).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ShiftDefinition{}, ErrUnknownKeyword
	}
	if err != nil {
		return ShiftDefinition{}, fmt.Errorf("resolve %s/%s: %w", c.Unit, keyword, err)
	}
	if cmd.ShiftSetting == nil {
		return ShiftDefinition{}, ErrUnknownKeyword
	}
	return definitionFromModel(c.Unit, cmd.TelegramCommandCommand, cmd.ShiftSetting)
}

func (c *DBCatalog) Keywords(ctx context.Context) ([]string, error) {
	var out []string
	err := c.DB.WithContext(ctx).
		Model(&jadwalModel.TelegramCommandModel{}).
		Where("unit = ? AND is_active = ?", string(c.Unit), true).
		Order("command ASC").
		Pluck("command", &out).Error
	if err != nil {
		return nil, fmt.Errorf("keywords %s: %w", c.Unit, err)
	}
	return out, nil
}

func definitionFromModel(unit memberModel.Unit, keyword string, s *jadwalModel.ShiftSettingModel) (ShiftDefinition, error) {
	kind, err := ParseKindCode(s.ShiftSettingType)
	if err != nil {
		return ShiftDefinition{}, err
	}
	return ShiftDefinition{
		Unit:      unit,
		Keyword:   Normalize(keyword),
		Kind:      kind,
		Label:     s.ShiftSettingName,
		Start:     s.ShiftSettingStartTime,
		End:       s.ShiftSettingEndTime,
		LateAfter: s.ShiftSettingLateAfter,
	}, nil
}

// ================== REGISTRY ==================

// Registry: catalog per unit. Unit tanpa catalog = semua keyword invalid.
type Registry struct {
	units map[memberModel.Unit]Catalog
	order []memberModel.Unit
}

func NewRegistry() *Registry {
	return &Registry{units: map[memberModel.Unit]Catalog{}}
}

func (r *Registry) Register(unit memberModel.Unit, c Catalog) *Registry {
	if _, ok := r.units[unit]; !ok {
		r.order = append(r.order, unit)
	}
	r.units[unit] = c
	return r
}

func (r *Registry) Resolve(ctx context.Context, unit memberModel.Unit, keyword string) (ShiftDefinition, error) {
	c, ok := r.units[unit]
	if !ok {
		return ShiftDefinition{}, ErrUnknownKeyword
	}
	return c.Resolve(ctx, keyword)
}

// UnitKeywords: keyword valid untuk satu unit saja.
func (r *Registry) UnitKeywords(ctx context.Context, unit memberModel.Unit) ([]string, error) {
	c, ok := r.units[unit]
	if !ok {
		return nil, nil
	}
	return c.Keywords(ctx)
}

// Keywords per unit, urut sesuai registrasi.
func (r *Registry) Keywords(ctx context.Context) (map[memberModel.Unit][]string, error) {
	out := make(map[memberModel.Unit][]string, len(r.units))
	for _, u := range r.order {
		kws, err := r.units[u].Keywords(ctx)
		if err != nil {
			return nil, err
		}
		out[u] = kws
	}
	return out, nil
}

// Units sesuai urutan registrasi.
func (r *Registry) Units() []memberModel.Unit {
	return append([]memberModel.Unit(nil), r.order...)
}

// AllKeywords: gabungan keyword semua unit (untuk deteksi caption).
func (r *Registry) AllKeywords(ctx context.Context) ([]string, error) {
	per, err := r.Keywords(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, kws := range per {
		for _, k := range kws {
			n := Normalize(k)
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
