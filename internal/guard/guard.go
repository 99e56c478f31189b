// Package guard orders and composes access checks for protected routes.
// Guards run in ascending priority order; the first one to produce a
// redirect short-circuits the chain. A guard that errors fails closed.
package guard

import (
	"context"

	"github.com/praetor-auth/praetor/internal/access"
)

// Route describes the navigation target a chain evaluates.
type Route struct {
	// Path is the route pattern being requested.
	Path string
	// Requirement carries the route's access demands, nil for routes that
	// only need the authentication gate.
	Requirement *access.Requirement
	// GuestOnly marks routes (login, register) that authenticated users
	// should be redirected away from.
	GuestOnly bool
}

// Guard is one chain element. Evaluate returns TargetNone to let the
// request continue to the next guard.
type Guard interface {
	Name() string
	Priority() int
	Evaluate(ctx context.Context, route Route) (access.Target, error)
}
