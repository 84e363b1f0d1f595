package route

import (
	rekapCtrl "absensi_bot/internals/features/attendance/rekap/controller"
	"absensi_bot/internals/features/attendance/rekap/service"

	"github.com/gofiber/fiber/v2"
)

func RekapAdminRoutes(r fiber.Router, b *service.Builder, s *service.Scheduler, guards ...fiber.Handler) {
	ctrl := rekapCtrl.NewRekapController(b, s)

	g := r.Group("/rekap")
	g.Get("/:kind", ctrl.Get)
	g.Post("/:kind/send", append(guards, ctrl.Send)...)
}
