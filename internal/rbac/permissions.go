package rbac

import "strings"

// Core platform permissions.
const (
	PermDashboardView = "dashboard.view"
	PermProfileEdit   = "profile.edit"

	PermUsersView   = "users.view"
	PermUsersEdit   = "users.edit"
	PermUsersManage = "users.manage"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermReportsView = "reports.view"

	PermSettingsEdit = "settings.edit"
)

// defaultPermissions maps each role to the permissions granted at identity
// creation. This is a convenience seed, not an invariant: grants may later
// diverge from the role through explicit grant/revoke.
var defaultPermissions = map[string][]string{
	RoleSuperAdmin: {
		PermDashboardView, PermProfileEdit,
		PermUsersView, PermUsersEdit, PermUsersManage,
		PermRolesView, PermRolesEdit,
		PermReportsView, PermSettingsEdit,
	},
	RoleAdmin: {
		PermDashboardView, PermProfileEdit,
		PermUsersView, PermUsersEdit,
		PermRolesView,
		PermReportsView, PermSettingsEdit,
	},
	RoleManager: {
		PermDashboardView, PermProfileEdit,
		PermUsersView,
		PermReportsView,
	},
	RoleUser: {
		PermDashboardView, PermProfileEdit,
	},
	RoleGuest: {
		PermDashboardView,
	},
}

// DefaultPermissionsFor returns a copy of the default permission list for a
// role. Unknown roles receive no permissions.
func DefaultPermissionsFor(role string) []string {
	perms, ok := defaultPermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// Normalize lowercases, trims and deduplicates permission names. Empty
// entries are dropped.
func Normalize(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

// HasPermission reports whether granted contains the permission exactly.
// There is no hierarchy between permissions.
func HasPermission(granted []string, perm string) bool {
	perm = strings.ToLower(strings.TrimSpace(perm))
	for _, p := range granted {
		if strings.ToLower(p) == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the intersection of granted and required
// is non-empty. Vacuously false for an empty required list.
func HasAnyPermission(granted []string, required []string) bool {
	if len(required) == 0 {
		return false
	}
	set := grantedSet(granted)
	for _, r := range required {
		if _, ok := set[strings.ToLower(strings.TrimSpace(r))]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every required permission is granted.
// Vacuously true for an empty required list.
func HasAllPermissions(granted []string, required []string) bool {
	set := grantedSet(granted)
	for _, r := range required {
		if _, ok := set[strings.ToLower(strings.TrimSpace(r))]; !ok {
			return false
		}
	}
	return true
}

func grantedSet(granted []string) map[string]struct{} {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	return set
}
