package route

import (
	absensiCtrl "absensi_bot/internals/features/attendance/absensi/controller"
	"absensi_bot/internals/features/attendance/absensi/service"

	"github.com/gofiber/fiber/v2"
)

// guards dipasang di endpoint yang mengubah data.
func AbsensiAdminRoutes(r fiber.Router, svc *service.Service, repo *service.Repository, guards ...fiber.Handler) {
	ctrl := absensiCtrl.NewAdminAbsensiController(svc, repo)

	g := r.Group("/absensi")
	g.Get("/", ctrl.List)                         // ?from=&to= (YYYY-MM-DD)
	g.Get("/today/:handle", ctrl.Today)           // @username
	g.Post("/edit", append(guards, ctrl.Edit)...) // ganti jadwal absen hari ini
}
