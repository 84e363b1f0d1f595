// internals/middlewares/auth/claim_utils.go
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"absensi_bot/internals/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleAdmin  = constants.RoleAdmin
	RoleViewer = constants.RoleViewer
)

/* ======== Extractors ======== */

// Authorization: Bearer <token>, fallback cookie access_token.
func extractBearerToken(c *fiber.Ctx) (string, error) {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth == "" {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", errors.New("unauthorized - No token provided")
	}

	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errors.New("unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", errors.New("unauthorized - Empty token")
	}
	return tok, nil
}

func validateTokenExpiry(claims jwt.MapClaims, skew time.Duration) error {
	var expUnix int64
	switch t := claims["exp"].(type) {
	case nil:
		return errors.New("token has no exp")
	case float64:
		expUnix = int64(t)
	case int64:
		expUnix = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return errors.New("invalid exp format")
		}
		expUnix = n
	default:
		return errors.New("invalid exp type")
	}

	expTime := time.Unix(expUnix, 0).UTC()
	if time.Now().UTC().After(expTime.Add(skew)) {
		return fmt.Errorf("token expired at %v", expTime)
	}
	return nil
}

// user_name tanpa '@' (lowercase); role kosong → admin.
func adminFromClaims(claims jwt.MapClaims) (username, role string) {
	if v, ok := claims["user_name"].(string); ok {
		username = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(v), "@"))
	}
	role = RoleAdmin
	if v, ok := claims["role"].(string); ok && strings.TrimSpace(v) != "" {
		role = strings.ToLower(strings.TrimSpace(v))
	}
	return username, role
}

/* ======== Issuer (CLI) ======== */

// IssueAdminToken membuat token HS256 untuk API admin.
func IssueAdminToken(secret, username, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("ADMIN_JWT_SECRET kosong")
	}
	if role == "" {
		role = RoleAdmin
	}
	if !constants.IsKnownRole(role) {
		return "", fmt.Errorf("role tidak dikenal %q", role)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_name": strings.TrimPrefix(strings.TrimSpace(username), "@"),
		"role":      role,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
