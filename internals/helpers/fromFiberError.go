package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FromFiberError mengubah *fiber.Error menjadi envelope JSON helper.Error.
// Error lain → 500 tanpa membocorkan pesan internal.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Error(c, fe.Code, fe.Message)
	}
	return Error(c, fiber.StatusInternalServerError, "Terjadi kesalahan pada server")
}

// ErrorHandler untuk fiber.Config; error non-fiber dicatat dulu.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			log.Error("❌ Unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return FromFiberError(c, err)
	}
}
