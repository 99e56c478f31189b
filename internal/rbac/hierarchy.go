package rbac

// Role names recognised by the hierarchy.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleUser       = "user"
	RoleGuest      = "guest"
)

// roleLevels orders roles by privilege. Higher level satisfies any
// requirement written for a lower or equal level.
var roleLevels = map[string]int{
	RoleSuperAdmin: 100,
	RoleAdmin:      80,
	RoleManager:    60,
	RoleUser:       40,
	RoleGuest:      20,
}

// LevelOf returns the hierarchy level for a role. Unknown roles map to 0,
// the least privileged level, so that a typo or a stale role name can never
// grant access.
func LevelOf(role string) int {
	if level, ok := roleLevels[role]; ok {
		return level
	}
	return 0
}

// Satisfies reports whether userRole meets a requirement written for
// requiredRole. A higher privileged role passes checks authored for lower
// roles.
func Satisfies(userRole, requiredRole string) bool {
	return LevelOf(userRole) >= LevelOf(requiredRole)
}

// SatisfiesAny reports whether userRole satisfies at least one of the given
// roles. False when the list is empty.
func SatisfiesAny(userRole string, roles []string) bool {
	for _, r := range roles {
		if Satisfies(userRole, r) {
			return true
		}
	}
	return false
}

// IsKnown reports whether the role has an entry in the hierarchy table.
func IsKnown(role string) bool {
	_, ok := roleLevels[role]
	return ok
}

// KnownRoles lists every role in the hierarchy ordered by descending level.
func KnownRoles() []string {
	return []string{RoleSuperAdmin, RoleAdmin, RoleManager, RoleUser, RoleGuest}
}
