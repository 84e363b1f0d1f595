package details

import (
	absensiRoute "absensi_bot/internals/features/attendance/absensi/route"
	absensiService "absensi_bot/internals/features/attendance/absensi/service"
	rekapRoute "absensi_bot/internals/features/attendance/rekap/route"
	rekapService "absensi_bot/internals/features/attendance/rekap/service"

	"github.com/gofiber/fiber/v2"
)

type AttendanceDeps struct {
	Service   *absensiService.Service
	Repo      *absensiService.Repository
	Builder   *rekapService.Builder
	Scheduler *rekapService.Scheduler
}

func AttendanceAdminRoutes(admin fiber.Router, d AttendanceDeps, writeGuard fiber.Handler) {
	absensiRoute.AbsensiAdminRoutes(admin, d.Service, d.Repo, writeGuard)
	rekapRoute.RekapAdminRoutes(admin, d.Builder, d.Scheduler, writeGuard)
}
