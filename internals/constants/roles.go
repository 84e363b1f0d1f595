package constants

import "fmt"

// Role pada JWT admin API (/api/a).
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess = "❌ Hanya admin yang boleh mengakses fitur %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleAdmin,
		RoleViewer,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)

// IsKnownRole dipakai saat menerbitkan token.
func IsKnownRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
