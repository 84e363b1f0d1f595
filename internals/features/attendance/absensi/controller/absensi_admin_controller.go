// file: internals/features/attendance/absensi/controller/absensi_admin_controller.go
package controller

import (
	"errors"
	"time"

	"absensi_bot/internals/features/attendance/absensi/dto"
	"absensi_bot/internals/features/attendance/absensi/service"
	helper "absensi_bot/internals/helpers"
	"absensi_bot/internals/helpers/dbtime"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type AdminAbsensiController struct {
	Svc      *service.Service
	Repo     *service.Repository // nil kalau DB tidak dikonfigurasi
	Validate *validator.Validate
}

func NewAdminAbsensiController(svc *service.Service, repo *service.Repository) *AdminAbsensiController {
	return &AdminAbsensiController{Svc: svc, Repo: repo, Validate: validator.New()}
}

/* ===================== LIST ===================== */
// GET /api/a/absensi?from=2026-01-03&to=2026-01-09
func (ctrl *AdminAbsensiController) List(c *fiber.Ctx) error {
	if ctrl.Repo == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Database tidak dikonfigurasi")
	}

	var q dto.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Query tidak valid")
	}
	if err := ctrl.Validate.Struct(q); err != nil {
		return helper.ValidationError(c, err)
	}

	loc := ctrl.Svc.Location()
	today := ctrl.Svc.Now()
	from := dbtime.DateOnly(today, loc)
	to := from
	if q.From != "" {
		t, _ := time.ParseInLocation(dbtime.DateKeyLayout, q.From, loc)
		from = dbtime.DateOnly(t, loc)
	}
	if q.To != "" {
		t, _ := time.ParseInLocation(dbtime.DateKeyLayout, q.To, loc)
		to = dbtime.DateOnly(t, loc)
	}
	if time.Time(to).Before(time.Time(from)) {
		return fiber.NewError(fiber.StatusBadRequest, "Rentang tanggal tidak valid")
	}

	rows, err := ctrl.Repo.ListByRange(c.UserContext(), from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data absensi")
	}
	out := make([]dto.AttendanceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.FromModel(r))
	}
	return helper.Success(c, "Data absensi", out)
}

/* ===================== TODAY ===================== */
// GET /api/a/absensi/today/:handle
func (ctrl *AdminAbsensiController) Today(c *fiber.Ctx) error {
	handle := c.Params("handle")
	view, err := ctrl.Svc.TodayRecord(c.UserContext(), handle)
	switch {
	case errors.Is(err, service.ErrUnknownUser), errors.Is(err, service.ErrNoHandle):
		return fiber.NewError(fiber.StatusNotFound, "User tidak ditemukan")
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengecek absensi")
	case view == nil:
		return helper.Error(c, fiber.StatusNotFound, "Belum absen hari ini")
	}
	return helper.Success(c, "Absensi hari ini", view)
}

/* ===================== EDIT ===================== */
// POST /api/a/absensi/edit
func (ctrl *AdminAbsensiController) Edit(c *fiber.Ctx) error {
	actor, err := helper.GetAdminFromToken(c)
	if err != nil {
		return err
	}

	var req dto.EditRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	res, err := ctrl.Svc.EditAttendance(c.UserContext(), actor, req)
	var inv *service.InvalidJadwalError
	switch {
	case err == nil:
		return helper.Success(c, "Absensi berhasil diupdate", res)
	case errors.Is(err, service.ErrNotPermitted):
		return fiber.NewError(fiber.StatusForbidden, "Bukan admin absensi")
	case errors.Is(err, service.ErrInvalidHandle):
		return fiber.NewError(fiber.StatusBadRequest, "Username harus diawali dengan @")
	case errors.Is(err, service.ErrUnknownUser):
		return fiber.NewError(fiber.StatusNotFound, "User tidak ditemukan")
	case errors.Is(err, service.ErrNoAttendanceToday):
		return fiber.NewError(fiber.StatusNotFound, "User belum absen hari ini")
	case errors.As(err, &inv):
		return helper.ErrorWithDetails(c, fiber.StatusBadRequest, "Jadwal tidak valid", fiber.Map{
			"unit":    inv.Unit,
			"pilihan": inv.Valid,
		})
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengupdate absensi")
	}
}
