// file: internals/features/attendance/rekap/controller/rekap_controller.go
package controller

import (
	"errors"

	"absensi_bot/internals/features/attendance/rekap/service"
	"absensi_bot/internals/features/attendance/sheets"
	helper "absensi_bot/internals/helpers"

	"github.com/gofiber/fiber/v2"
)

type RekapController struct {
	Builder   *service.Builder
	Scheduler *service.Scheduler
}

func NewRekapController(b *service.Builder, s *service.Scheduler) *RekapController {
	return &RekapController{Builder: b, Scheduler: s}
}

/* ===================== GET ===================== */
// GET /api/a/rekap/:kind  (harian | mingguan | bulanan)
func (ctrl *RekapController) Get(c *fiber.Ctx) error {
	kind, ok := service.ParseKind(c.Params("kind"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Jenis rekap tidak dikenal (harian|mingguan|bulanan)")
	}

	rep, err := ctrl.Builder.Build(c.UserContext(), kind)
	if err != nil {
		if errors.Is(err, sheets.ErrFetchFailure) {
			return fiber.NewError(fiber.StatusBadGateway, kind.ErrorMessage())
		}
		return fiber.NewError(fiber.StatusInternalServerError, kind.ErrorMessage())
	}

	return helper.Success(c, "Rekap "+string(kind), fiber.Map{
		"report": rep,
		"empty":  rep.Empty(),
		"text":   rep.Text(),
	})
}

/* ===================== SEND ===================== */
// POST /api/a/rekap/:kind/send → kirim ke GROUP_ID sekarang juga
func (ctrl *RekapController) Send(c *fiber.Ctx) error {
	if ctrl.Scheduler == nil || ctrl.Scheduler.GroupID == 0 {
		return fiber.NewError(fiber.StatusServiceUnavailable, "GROUP_ID tidak dikonfigurasi")
	}
	kind, ok := service.ParseKind(c.Params("kind"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Jenis rekap tidak dikenal (harian|mingguan|bulanan)")
	}

	sent, err := ctrl.Scheduler.SendRekap(c.UserContext(), kind)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, kind.ErrorMessage())
	}
	return helper.Success(c, "Rekap diproses", fiber.Map{"sent": sent})
}
