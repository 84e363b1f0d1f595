// file: internals/features/notifications/controller/outbox_controller.go
package controller

import (
	"errors"

	"absensi_bot/internals/features/notifications/outbox"
	helper "absensi_bot/internals/helpers"

	"github.com/gofiber/fiber/v2"
)

type OutboxController struct {
	Notifier *outbox.Notifier
}

func NewOutboxController(n *outbox.Notifier) *OutboxController {
	return &OutboxController{Notifier: n}
}

/* ===================== LIST ===================== */
// GET /api/a/outbox?page=1&per_page=20
func (ctrl *OutboxController) List(c *fiber.Ctx) error {
	items := ctrl.Notifier.Queue().List()
	p := helper.ResolvePaging(c, 20, 100)
	page := helper.Window(items, p)
	return helper.JsonList(c, "Pesan tertunda", page, helper.BuildPagination(int64(len(items)), p, len(page)))
}

/* ===================== DRAIN ===================== */
// POST /api/a/outbox/drain
func (ctrl *OutboxController) Drain(c *fiber.Ctx) error {
	res, err := ctrl.Notifier.Queue().Drain(c.UserContext(), ctrl.Notifier.Sender())
	switch {
	case errors.Is(err, outbox.ErrDrainInProgress):
		return fiber.NewError(fiber.StatusConflict, "Outbox sedang diproses")
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menyimpan outbox")
	}
	return helper.Success(c, "Outbox diproses", fiber.Map{
		"result":    res,
		"remaining": ctrl.Notifier.Queue().Size(),
	})
}
