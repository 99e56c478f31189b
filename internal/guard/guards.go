package guard

import (
	"context"

	"github.com/praetor-auth/praetor/internal/access"
	"github.com/praetor-auth/praetor/internal/session"
)

// Guard priorities. Authentication gates before authorization.
const (
	PriorityGuest  = 0
	PriorityAuth   = 1
	PriorityAccess = 2
)

// GuestGuard runs the inverse check on guest-only routes: an already
// authenticated user is sent to the landing page for their role instead of
// the requested page.
type GuestGuard struct {
	Sessions *session.Manager
}

// Name identifies the guard in logs.
func (g GuestGuard) Name() string { return "guest" }

// Priority runs this guard before the authentication gate.
func (g GuestGuard) Priority() int { return PriorityGuest }

// Evaluate redirects authenticated users away from guest-only routes.
func (g GuestGuard) Evaluate(ctx context.Context, route Route) (access.Target, error) {
	if !route.GuestOnly {
		return access.TargetNone, nil
	}
	ident := g.Sessions.CurrentIdentity()
	if ident == nil {
		return access.TargetNone, nil
	}
	return access.Landing(ident.Role), nil
}

// AuthGuard is the authentication gate: unauthenticated requests to
// non-guest routes are redirected to login before any role or permission
// check runs.
type AuthGuard struct {
	Sessions *session.Manager
}

// Name identifies the guard in logs.
func (g AuthGuard) Name() string { return "auth" }

// Priority places the authentication gate ahead of authorization.
func (g AuthGuard) Priority() int { return PriorityAuth }

// Evaluate redirects unauthenticated requests to the login target.
func (g AuthGuard) Evaluate(ctx context.Context, route Route) (access.Target, error) {
	if route.GuestOnly {
		return access.TargetNone, nil
	}
	if !g.Sessions.IsAuthenticated() {
		return access.TargetLogin, nil
	}
	return access.TargetNone, nil
}

// AccessGuard runs the decision engine against the route's requirement.
type AccessGuard struct {
	Engine *access.Engine
}

// Name identifies the guard in logs.
func (g AccessGuard) Name() string { return "access" }

// Priority places authorization after the authentication gate.
func (g AccessGuard) Priority() int { return PriorityAccess }

// Evaluate denies with the engine's redirect when the requirement fails.
func (g AccessGuard) Evaluate(ctx context.Context, route Route) (access.Target, error) {
	if route.GuestOnly || route.Requirement == nil {
		return access.TargetNone, nil
	}
	d := g.Engine.Decide(*route.Requirement)
	if d.Allow {
		return access.TargetNone, nil
	}
	return d.Redirect, nil
}
