// file: internals/features/attendance/absensi/service/absensi_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"absensi_bot/internals/features/attendance/absensi/dto"
	absensiModel "absensi_bot/internals/features/attendance/absensi/model"
	"absensi_bot/internals/features/attendance/jadwal"
	"absensi_bot/internals/features/attendance/sheets"
	memberModel "absensi_bot/internals/features/users/members/model"
	"absensi_bot/internals/helpers/dbtime"
	"absensi_bot/internals/helpers/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Hasil akhir check-in / edit selain sukses. Masing-masing punya satu template balasan.
var (
	ErrNoHandle          = errors.New("user tanpa username telegram")
	ErrUnknownUser       = errors.New("username tidak terdaftar")
	ErrMissingPhoto      = errors.New("absen tanpa foto")
	ErrInvalidCommand    = errors.New("keyword tidak sesuai jadwal unit")
	ErrAlreadyAttended   = errors.New("sudah absen hari ini")
	ErrPersistence       = errors.New("gagal menyimpan absensi")
	ErrNotPermitted      = errors.New("bukan admin")
	ErrNoAttendanceToday = errors.New("belum absen hari ini")
	ErrInvalidHandle     = errors.New("username harus diawali @")
	ErrInvalidRequest    = errors.New("request absen tidak valid")
)

// ================== KOLABORATOR ==================

type MemberLookup interface {
	Lookup(ctx context.Context, handle string) (*memberModel.Member, error)
}

// ShiftCatalog dipenuhi *jadwal.Registry.
type ShiftCatalog interface {
	Resolve(ctx context.Context, unit memberModel.Unit, keyword string) (jadwal.ShiftDefinition, error)
	UnitKeywords(ctx context.Context, unit memberModel.Unit) ([]string, error)
}

// PhotoResolver: file_id → URL download.
type PhotoResolver interface {
	ResolvePhoto(ctx context.Context, fileID string) (string, error)
}

// RecordStore dipenuhi *sheets.RecordCache (semua tulis lewat cache → invalidasi).
type RecordStore interface {
	Load(ctx context.Context) ([]sheets.Record, error)
	Append(ctx context.Context, rec sheets.Record) error
	UpdateRow(ctx context.Context, row int, upd sheets.RowUpdate) error
}

// AttendanceStore dipenuhi *Repository.
type AttendanceStore interface {
	FindByMemberOnDate(ctx context.Context, memberID uuid.UUID, tanggal datatypes.Date) (*absensiModel.AttendanceModel, error)
	UpsertThen(ctx context.Context, row *absensiModel.AttendanceModel, after func(ctx context.Context) error) error
	UpdateShift(ctx context.Context, id uuid.UUID, jadwalMasuk, keterangan, status string) error
}

// ================== SERVICE ==================

type Deps struct {
	Members  MemberLookup
	Shifts   ShiftCatalog
	Photos   PhotoResolver
	Records  RecordStore
	Repo     AttendanceStore // nil = tanpa DB relasional
	Location *time.Location
	Clock    dbtime.Clock
	IsAdmin  func(username string) bool
	Log      *zap.Logger
}

type Service struct {
	members  MemberLookup
	shifts   ShiftCatalog
	photos   PhotoResolver
	records  RecordStore
	repo     AttendanceStore
	loc      *time.Location
	clock    dbtime.Clock
	isAdmin  func(string) bool
	log      *zap.Logger
	validate *validator.Validate

	locks keyedMutex
}

func New(d Deps) *Service {
	if d.Location == nil {
		d.Location = dbtime.LoadLocation("")
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.IsAdmin == nil {
		d.IsAdmin = func(string) bool { return false }
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Service{
		members:  d.Members,
		shifts:   d.Shifts,
		photos:   d.Photos,
		records:  d.Records,
		repo:     d.Repo,
		loc:      d.Location,
		clock:    d.Clock,
		isAdmin:  d.IsAdmin,
		log:      d.Log.Named("absensi"),
		validate: validator.New(),
		locks:    keyedMutex{m: map[string]*lockEntry{}},
	}
}

func (s *Service) Location() *time.Location { return s.loc }
func (s *Service) Now() time.Time           { return s.clock.InZone(s.loc) }

// CheckIn: identitas → foto → keyword → duplikat → foto URL → status → simpan.
func (s *Service) CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResult, error) {
	res, err := s.checkIn(ctx, req)
	metrics.CheckinTotal.WithLabelValues(outcomeLabel(err)).Inc()
	return res, err
}

func (s *Service) checkIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResult, error) {
	if strings.TrimSpace(req.Handle) == "" || strings.TrimSpace(req.Handle) == "@" {
		return nil, ErrNoHandle
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// 1) identitas
	member, err := s.members.Lookup(ctx, req.Handle)
	if err != nil {
		s.log.Error("❌ Lookup user gagal", zap.String("handle", req.Handle), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if member == nil {
		return nil, ErrUnknownUser
	}

	// 2) foto wajib
	if strings.TrimSpace(req.PhotoFileID) == "" {
		return nil, ErrMissingPhoto
	}

	// 3) keyword harus milik unit member
	def, err := s.resolveForUnit(ctx, member.Unit, req.Text)
	if err != nil {
		return nil, err
	}

	// cek duplikat + tulis diserialkan per member
	unlock := s.locks.Lock(member.NIK)
	defer unlock()

	now := s.Now()

	// 4) satu absen per hari
	existing, err := s.findToday(ctx, member, now, false)
	if err != nil {
		s.log.Error("❌ Cek absen hari ini gagal", zap.String("nik", member.NIK), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if existing != nil {
		return nil, ErrAlreadyAttended
	}

	// 5) URL foto (gagal → pakai file_id)
	photo := s.resolvePhoto(ctx, req.PhotoFileID)

	// 6) status
	status := jadwal.Evaluate(def, now)

	// 7) simpan
	rec := sheets.Record{
		Waktu:       now,
		NIK:         member.NIK,
		Nama:        member.Nama,
		JadwalMasuk: def.JadwalLabel(),
		Keterangan:  def.SheetNote(),
		LinkFoto:    photo,
		JamAbsen:    dbtime.FormatJam(now),
		Status:      status.String(),
		Unit:        string(member.Unit),
		Bulan:       dbtime.FormatBulan(now),
	}

	out := &dto.CheckInResult{Member: *member, Shift: def, Status: status, At: now, PhotoLink: photo}

	if member.Primary() && s.repo != nil {
		row := &absensiModel.AttendanceModel{
			AttendanceID:               uuid.New(),
			AttendanceMemberID:         member.ID,
			AttendanceTanggal:          dbtime.DateOnly(now, s.loc),
			AttendanceJamAbsen:         rec.JamAbsen,
			AttendanceJadwalMasuk:      rec.JadwalMasuk,
			AttendanceKeterangan:       def.Kind.Code(),
			AttendanceStatus:           status.Code(),
			AttendanceUsernameTelegram: member.UsernameTelegram,
			AttendanceSource:           absensiModel.SourceTelegramBot,
			AttendancePhotoURL:         &photo,
		}
		if req.MessageID != 0 {
			mid := int64(req.MessageID)
			row.AttendanceMessageID = &mid
		}
		if req.ChatID != 0 {
			cid := req.ChatID
			row.AttendanceChatID = &cid
		}
		// sheet ditulis di dalam transaksi: gagal append → upsert di-rollback
		err = s.repo.UpsertThen(ctx, row, func(ctx context.Context) error {
			return s.records.Append(ctx, rec)
		})
		out.Row = row
	} else {
		err = s.records.Append(ctx, rec)
	}
	if err != nil {
		if errors.Is(err, ErrAlreadyAttended) {
			return nil, ErrAlreadyAttended
		}
		s.log.Error("❌ Error recording attendance",
			zap.String("nik", member.NIK),
			zap.String("unit", string(member.Unit)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.log.Info("✅ Absen tercatat",
		zap.String("nama", member.Nama),
		zap.String("unit", string(member.Unit)),
		zap.String("keyword", def.Keyword),
		zap.String("jam", rec.JamAbsen),
		zap.String("status", rec.Status),
	)
	return out, nil
}

// resolveForUnit: keyword di caption dicocokkan HANYA dengan keyword unit member.
func (s *Service) resolveForUnit(ctx context.Context, unit memberModel.Unit, text string) (jadwal.ShiftDefinition, error) {
	kws, err := s.shifts.UnitKeywords(ctx, unit)
	if err != nil {
		return jadwal.ShiftDefinition{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	kw, ok := jadwal.MatchKeyword(text, kws)
	if !ok {
		return jadwal.ShiftDefinition{}, &InvalidJadwalError{Unit: unit, Jadwal: firstField(text), Valid: kws}
	}
	def, err := s.shifts.Resolve(ctx, unit, kw)
	if errors.Is(err, jadwal.ErrUnknownKeyword) {
		return jadwal.ShiftDefinition{}, &InvalidJadwalError{Unit: unit, Jadwal: kw, Valid: kws}
	}
	if err != nil {
		return jadwal.ShiftDefinition{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return def, nil
}

func (s *Service) resolvePhoto(ctx context.Context, fileID string) string {
	if s.photos == nil {
		return fileID
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	url, err := s.photos.ResolvePhoto(pctx, fileID)
	if err != nil || url == "" {
		s.log.Warn("⚠️ Error getting file URL, pakai file_id", zap.Error(err))
		return fileID
	}
	return url
}

// findToday: anggota utama → DB dulu; selain itu (atau tidak ketemu) → sheet.
// needSheet=true: sheet wajib terbaca walau baris DB ada (jalur edit).
func (s *Service) findToday(ctx context.Context, m *memberModel.Member, now time.Time, needSheet bool) (*dto.AttendanceView, error) {
	var view *dto.AttendanceView

	if m.Primary() && s.repo != nil {
		row, err := s.repo.FindByMemberOnDate(ctx, m.ID, dbtime.DateOnly(now, s.loc))
		if err != nil {
			return nil, err
		}
		if row != nil {
			view = viewFromRow(m, row, now)
		}
	}

	records, err := s.records.Load(ctx)
	if err != nil {
		if view != nil && !needSheet {
			// DB sudah cukup untuk menjawab
			s.log.Warn("⚠️ Sheet tidak terbaca, pakai data DB", zap.Error(err))
			return view, nil
		}
		return nil, err
	}
	rec, ok := sheets.FindByNIKOnDate(records, m.NIK, dbtime.DateKey(now, s.loc), s.loc)
	if view != nil {
		if ok {
			view.SheetRow = rec.Row
			view.LinkFoto = rec.LinkFoto
		}
		return view, nil
	}
	if !ok {
		return nil, nil
	}
	return &dto.AttendanceView{
		Nama:        rec.Nama,
		Tanggal:     rec.Waktu.In(s.loc),
		JamAbsen:    rec.JamAbsen,
		JadwalMasuk: rec.JadwalMasuk,
		Keterangan:  rec.Keterangan,
		Unit:        rec.Unit,
		Status:      rec.Status,
		LinkFoto:    rec.LinkFoto,
		SheetRow:    rec.Row,
	}, nil
}

func viewFromRow(m *memberModel.Member, row *absensiModel.AttendanceModel, now time.Time) *dto.AttendanceView {
	ket := row.AttendanceKeterangan
	if k, err := jadwal.ParseKindCode(ket); err == nil {
		ket = k.String()
	}
	status := jadwal.StatusOntime
	if row.AttendanceStatus == jadwal.StatusTelat.Code() {
		status = jadwal.StatusTelat
	}
	photo := ""
	if row.AttendancePhotoURL != nil {
		photo = *row.AttendancePhotoURL
	}
	return &dto.AttendanceView{
		Nama:        m.Nama,
		Tanggal:     now,
		JamAbsen:    row.AttendanceJamAbsen,
		JadwalMasuk: row.AttendanceJadwalMasuk,
		Keterangan:  ket,
		Unit:        string(m.Unit),
		Status:      status.String(),
		LinkFoto:    photo,
		DBRow:       row,
	}
}

// TodayRecord (/cekabsen). (nil, nil) = belum absen.
func (s *Service) TodayRecord(ctx context.Context, handle string) (*dto.AttendanceView, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, ErrNoHandle
	}
	member, err := s.members.Lookup(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if member == nil {
		return nil, ErrUnknownUser
	}
	view, err := s.findToday(ctx, member, s.Now(), false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return view, nil
}

// ================== EDIT ADMIN ==================

// InvalidJadwalError: jadwal baru tidak ada di unit target.
type InvalidJadwalError struct {
	Unit   memberModel.Unit
	Jadwal string
	Valid  []string
}

func (e *InvalidJadwalError) Error() string {
	return fmt.Sprintf("jadwal %q tidak valid untuk %s", e.Jadwal, e.Unit)
}

func (e *InvalidJadwalError) Unwrap() error { return ErrInvalidCommand }

// EditAttendance: ganti jadwal absen hari ini milik target, status dihitung ulang (>=).
// actor = username pengirim (tanpa @).
func (s *Service) EditAttendance(ctx context.Context, actor string, req dto.EditRequest) (*dto.EditResult, error) {
	if !s.isAdmin(actor) {
		return nil, ErrNotPermitted
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(req.TargetHandle, "@") {
		return nil, ErrInvalidHandle
	}

	target, err := s.members.Lookup(ctx, req.TargetHandle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if target == nil {
		return nil, ErrUnknownUser
	}

	unlock := s.locks.Lock(target.NIK)
	defer unlock()

	now := s.Now()
	today, err := s.findToday(ctx, target, now, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if today == nil {
		// nama target tetap dikembalikan untuk template balasan
		return &dto.EditResult{Nama: target.Nama, Unit: string(target.Unit)}, ErrNoAttendanceToday
	}

	jadwalText := strings.ToLower(strings.TrimSpace(req.Jadwal))
	keyword := "/" + strings.TrimPrefix(jadwalText, "/")
	def, err := s.shifts.Resolve(ctx, target.Unit, keyword)
	if errors.Is(err, jadwal.ErrUnknownKeyword) {
		valid, _ := s.shifts.UnitKeywords(ctx, target.Unit)
		return nil, &InvalidJadwalError{Unit: target.Unit, Jadwal: jadwalText, Valid: valid}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	status, err := jadwal.Reevaluate(def, today.JamAbsen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if today.DBRow != nil && s.repo != nil {
		if err := s.repo.UpdateShift(ctx, today.DBRow.AttendanceID, def.JadwalLabel(), def.Kind.Code(), status.Code()); err != nil {
			s.log.Error("Error updating attendance", zap.String("nik", target.NIK), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	if today.SheetRow > 0 {
		upd := sheets.RowUpdate{JadwalMasuk: def.JadwalLabel(), Keterangan: def.SheetNote(), Status: status.String()}
		if err := s.records.UpdateRow(ctx, today.SheetRow, upd); err != nil {
			s.log.Error("Error updating attendance di sheet", zap.String("nik", target.NIK), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	} else {
		s.log.Warn("⚠️ Baris sheet tidak ditemukan, hanya DB yang diupdate", zap.String("nik", target.NIK))
	}

	s.log.Info("✏️ Jadwal masuk diubah oleh admin",
		zap.String("nama", target.Nama),
		zap.String("keterangan", def.Label),
		zap.String("admin", actor),
	)
	return &dto.EditResult{
		Nama:        target.Nama,
		Unit:        string(target.Unit),
		JadwalMasuk: def.JadwalLabel(),
		Keterangan:  def.Label,
		Status:      status,
		StatusLabel: status.String(),
	}, nil
}

// ================== UTIL ==================

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "recorded"
	case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrNoHandle):
		return "unknown_user"
	case errors.Is(err, ErrMissingPhoto):
		return "missing_photo"
	case errors.Is(err, ErrInvalidCommand):
		return "invalid_command"
	case errors.Is(err, ErrAlreadyAttended):
		return "already_attended"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "persistence_failure"
	}
}

// keyedMutex: satu mutex per key, dibuang saat tidak dipakai.
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.m[key]
	if !ok {
		e = &lockEntry{}
		k.m[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
