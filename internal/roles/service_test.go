package roles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/roles"
)

func TestListCatalog(t *testing.T) {
	svc := roles.NewService()
	list := svc.List()
	require.Len(t, list, len(rbac.KnownRoles()))

	assert.Equal(t, rbac.RoleSuperAdmin, list[0].Name)
	assert.Equal(t, 100, list[0].Level)
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i-1].Level, list[i].Level)
	}
	for _, r := range list {
		assert.ElementsMatch(t, rbac.DefaultPermissionsFor(r.Name), r.DefaultPermissions)
	}
}

func TestDisplayName(t *testing.T) {
	svc := roles.NewService()
	assert.Equal(t, "Super Admin", svc.DisplayName("super_admin"))
	assert.Equal(t, "Admin", svc.DisplayName("admin"))
	assert.Equal(t, "Manager", svc.DisplayName("manager"))
}
