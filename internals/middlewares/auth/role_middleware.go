package auth

import (
	"github.com/gofiber/fiber/v2"
)

// OnlyRoles: dipasang setelah AdminJWT, role diambil dari Locals(admin_role).
func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	if customMessage == "" {
		customMessage = "Forbidden: role tidak diizinkan"
	}
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocAdminRole).(string)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, customMessage)
	}
}
