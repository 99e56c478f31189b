package rbac_test

import (
	"testing"

	"github.com/praetor-auth/praetor/internal/rbac"
)

func TestDefaultPermissionsFor(t *testing.T) {
	for _, role := range rbac.KnownRoles() {
		if len(rbac.DefaultPermissionsFor(role)) == 0 {
			t.Errorf("role %q should carry default permissions", role)
		}
	}
	if perms := rbac.DefaultPermissionsFor("unknown"); perms != nil {
		t.Fatalf("unknown role should get no permissions, got %v", perms)
	}

	// The returned slice is a copy; mutating it must not leak into the table.
	perms := rbac.DefaultPermissionsFor(rbac.RoleGuest)
	perms[0] = "mutated"
	if rbac.DefaultPermissionsFor(rbac.RoleGuest)[0] == "mutated" {
		t.Fatal("DefaultPermissionsFor must return a copy")
	}
}

func TestDefaultPermissionsWidenWithLevel(t *testing.T) {
	roles := rbac.KnownRoles()
	for i := 1; i < len(roles); i++ {
		higher := rbac.DefaultPermissionsFor(roles[i-1])
		lower := rbac.DefaultPermissionsFor(roles[i])
		if !rbac.HasAllPermissions(higher, lower) {
			t.Errorf("defaults for %q should include all defaults of %q", roles[i-1], roles[i])
		}
	}
}

func TestHasPermissionExactMatch(t *testing.T) {
	granted := []string{rbac.PermUsersView, rbac.PermReportsView}
	if !rbac.HasPermission(granted, rbac.PermUsersView) {
		t.Fatal("granted permission should match")
	}
	if rbac.HasPermission(granted, rbac.PermUsersManage) {
		t.Fatal("users.view must not imply users.manage")
	}
	if rbac.HasPermission(granted, "users") {
		t.Fatal("no prefix matching between permissions")
	}
}

func TestHasAnyPermissionVacuouslyFalse(t *testing.T) {
	granted := []string{rbac.PermDashboardView}
	if rbac.HasAnyPermission(granted, nil) {
		t.Fatal("empty required list is vacuously false")
	}
	if !rbac.HasAnyPermission(granted, []string{rbac.PermUsersView, rbac.PermDashboardView}) {
		t.Fatal("one overlapping permission should pass")
	}
	if rbac.HasAnyPermission(nil, []string{rbac.PermUsersView}) {
		t.Fatal("empty grant set passes nothing")
	}
}

func TestHasAllPermissionsVacuouslyTrue(t *testing.T) {
	if !rbac.HasAllPermissions(nil, nil) {
		t.Fatal("empty required list is vacuously true")
	}
	granted := []string{rbac.PermUsersView, rbac.PermUsersEdit}
	if !rbac.HasAllPermissions(granted, []string{rbac.PermUsersView}) {
		t.Fatal("subset should pass")
	}
	if rbac.HasAllPermissions(granted, []string{rbac.PermUsersView, rbac.PermUsersManage}) {
		t.Fatal("one missing permission should fail")
	}
}

func TestNormalize(t *testing.T) {
	got := rbac.Normalize([]string{" Users.View ", "users.view", "", "REPORTS.VIEW"})
	want := []string{"users.view", "reports.view"}
	if len(got) != len(want) {
		t.Fatalf("Normalize returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Normalize returned %v, want %v", got, want)
		}
	}
}
