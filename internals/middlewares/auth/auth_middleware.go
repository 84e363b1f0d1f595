// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"time"

	helper "absensi_bot/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const LocAdminRole = "admin_role"

type AdminJWTOptions struct {
	Secret  string
	IsAdmin func(username string) bool
	Log     *zap.Logger
}

// AdminJWT: token HS256 dengan klaim user_name (username Telegram admin) + role.
// Username harus ada di ADMIN_USERNAMES; token lama tetap ditolak setelah admin dicabut.
func AdminJWT(opts AdminJWTOptions) fiber.Handler {
	log := opts.Log.Named("auth")
	return func(c *fiber.Ctx) error {
		if opts.Secret == "" {
			log.Error("❌ ADMIN_JWT_SECRET kosong, API admin dimatikan")
			return fiber.NewError(fiber.StatusServiceUnavailable, "API admin tidak dikonfigurasi")
		}

		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true, ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(opts.Secret), nil
		}); err != nil {
			log.Warn("⚠️ Gagal parse token", zap.Error(err))
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			log.Warn("⚠️ Token expired", zap.Error(err))
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		username, role := adminFromClaims(claims)
		if username == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user_name")
		}
		if opts.IsAdmin != nil && !opts.IsAdmin(username) {
			log.Warn("⚠️ Bukan admin absensi", zap.String("user_name", username))
			return fiber.NewError(fiber.StatusForbidden, "Bukan admin absensi")
		}

		c.Locals(helper.LocAdminUsername, username)
		c.Locals(LocAdminRole, role)
		return c.Next()
	}
}
