package guard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-auth/praetor/internal/access"
	"github.com/praetor-auth/praetor/internal/guard"
	"github.com/praetor-auth/praetor/internal/identity"
	"github.com/praetor-auth/praetor/internal/rbac"
)

func TestRevalidatorNavigatesAwayOnRoleDowngrade(t *testing.T) {
	admin := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleAdmin)
	reg, mgr, authn := fixture(t, admin)
	reg.MustRegister("/admin", &access.Requirement{AllowedRoles: []string{rbac.RoleAdmin}})

	var mu sync.Mutex
	var targets []access.Target
	reval := guard.NewRevalidator(reg, func(target access.Target) {
		mu.Lock()
		targets = append(targets, target)
		mu.Unlock()
	}, nil)
	reval.SetActive("/admin")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reval.Watch(ctx, mgr)
	time.Sleep(10 * time.Millisecond)

	// Demote the signed-in admin; the refresh emits a session-changed event
	// and the watcher re-runs the chain for the active route.
	authn.setCurrent(admin.WithRole(rbac.RoleUser))
	require.NoError(t, mgr.Refresh(context.Background()))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(targets) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, access.TargetUnauthorized, targets[0])
	mu.Unlock()
}

func TestRevalidatorIgnoresEventsWhenAccessStillHolds(t *testing.T) {
	admin := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleAdmin)
	reg, mgr, authn := fixture(t, admin)
	reg.MustRegister("/admin", &access.Requirement{AllowedRoles: []string{rbac.RoleAdmin}})

	var mu sync.Mutex
	var calls int
	reval := guard.NewRevalidator(reg, func(access.Target) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, nil)
	reval.SetActive("/admin")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reval.Watch(ctx, mgr)
	time.Sleep(10 * time.Millisecond)

	// Super admin still satisfies the admin requirement.
	authn.setCurrent(admin.WithRole(rbac.RoleSuperAdmin))
	require.NoError(t, mgr.Refresh(context.Background()))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Zero(t, calls)
	mu.Unlock()
}

func TestRevalidatorSignOutForcesLoginRedirect(t *testing.T) {
	user := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser)
	reg, mgr, _ := fixture(t, user)
	reg.MustRegister("/dashboard", &access.Requirement{RequiredPermissions: []string{rbac.PermDashboardView}})

	var mu sync.Mutex
	var targets []access.Target
	reval := guard.NewRevalidator(reg, func(target access.Target) {
		mu.Lock()
		targets = append(targets, target)
		mu.Unlock()
	}, nil)
	reval.SetActive("/dashboard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reval.Watch(ctx, mgr)
	time.Sleep(10 * time.Millisecond)

	mgr.SignOut(context.Background())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(targets) >= 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, access.TargetLogin, targets[0])
	mu.Unlock()
}
