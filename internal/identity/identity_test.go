package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-auth/praetor/internal/identity"
	"github.com/praetor-auth/praetor/internal/rbac"
)

func TestNewAppliesRoleDefaults(t *testing.T) {
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleManager)
	require.Equal(t, rbac.RoleManager, ident.Role)
	assert.ElementsMatch(t, rbac.DefaultPermissionsFor(rbac.RoleManager), ident.Permissions)
	assert.True(t, ident.IsActive)
	assert.False(t, ident.IsBlocked)
	assert.False(t, ident.EmailVerified)
}

func TestNewDefaultsRoleToUser(t *testing.T) {
	ident := identity.New("u-1", "kim@example.com", "Kim", "")
	assert.Equal(t, rbac.RoleUser, ident.Role)
}

func TestCloneIsDeep(t *testing.T) {
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser)
	clone := ident.Clone()
	clone.Permissions[0] = "mutated"
	assert.NotEqual(t, "mutated", ident.Permissions[0])
}

func TestBlockedImpliesInactive(t *testing.T) {
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser)
	blocked := ident.Blocked()
	assert.True(t, blocked.IsBlocked)
	assert.False(t, blocked.IsActive)
	assert.False(t, blocked.Usable())

	// The original copy is untouched.
	assert.True(t, ident.IsActive)
}

func TestActivatedKeepsBlockedAccountsUnusable(t *testing.T) {
	blocked := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser).Blocked()
	reactivated := blocked.Activated()
	assert.True(t, reactivated.IsBlocked)
	assert.False(t, reactivated.IsActive)
	assert.False(t, reactivated.Usable())

	unblocked := blocked.Unblocked()
	assert.True(t, unblocked.Usable())
}

func TestWithRoleResetsPermissions(t *testing.T) {
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleAdmin).Grant("custom.perm")
	demoted := ident.WithRole(rbac.RoleUser)
	assert.Equal(t, rbac.RoleUser, demoted.Role)
	assert.ElementsMatch(t, rbac.DefaultPermissionsFor(rbac.RoleUser), demoted.Permissions)
	assert.False(t, demoted.HasPermission("custom.perm"))
}

func TestGrantRevoke(t *testing.T) {
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser)
	granted := ident.Grant(rbac.PermReportsView)
	assert.True(t, granted.HasPermission(rbac.PermReportsView))

	// Granting twice does not duplicate.
	again := granted.Grant(rbac.PermReportsView)
	assert.Equal(t, len(granted.Permissions), len(again.Permissions))

	revoked := granted.Revoke(rbac.PermReportsView)
	assert.False(t, revoked.HasPermission(rbac.PermReportsView))
}

func TestRoleAndPermissionChecks(t *testing.T) {
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleAdmin)
	assert.True(t, ident.HasRole(rbac.RoleManager))
	assert.False(t, ident.HasRole(rbac.RoleSuperAdmin))
	assert.True(t, ident.HasAnyRole(rbac.RoleSuperAdmin, rbac.RoleUser))
	assert.False(t, ident.HasAnyRole())
	assert.True(t, ident.HasAllPermissions())
	assert.False(t, ident.HasAnyPermission())

	var nilIdent *identity.Identity
	assert.False(t, nilIdent.HasRole(rbac.RoleGuest))
	assert.False(t, nilIdent.HasPermission(rbac.PermDashboardView))
	assert.Nil(t, nilIdent.Clone())
}

func TestSameIgnoresPermissionChurn(t *testing.T) {
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser)
	assert.True(t, ident.Same(ident.Grant(rbac.PermReportsView)))
	assert.True(t, ident.Same(ident.Blocked()))
	assert.False(t, ident.Same(ident.WithRole(rbac.RoleAdmin)))

	other := identity.New("u-2", "kim@example.com", "Kim", rbac.RoleUser)
	assert.False(t, ident.Same(other))

	var nilIdent *identity.Identity
	assert.False(t, ident.Same(nilIdent))
	assert.True(t, nilIdent.Same(nil))
}
