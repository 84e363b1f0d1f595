package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LocAdminUsername diisi middleware AdminJWT.
const LocAdminUsername = "admin_username"

// Ambil username admin dari c.Locals("admin_username").
// Return 401 kalau belum login, 400 kalau formatnya tidak valid.
func GetAdminFromToken(c *fiber.Ctx) (string, error) {
	v := c.Locals(LocAdminUsername)
	if v == nil {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Admin belum login")
	}

	switch t := v.(type) {
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(t), "@")
		if s == "" {
			return "", fiber.NewError(fiber.StatusUnauthorized, "Admin belum login")
		}
		return s, nil
	case []byte:
		s := strings.TrimPrefix(strings.TrimSpace(string(t)), "@")
		if s == "" {
			return "", fiber.NewError(fiber.StatusUnauthorized, "Admin belum login")
		}
		return s, nil
	default:
		return "", fiber.NewError(fiber.StatusBadRequest, "Username pada token tidak valid")
	}
}
