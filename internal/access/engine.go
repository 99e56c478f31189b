package access

import (
	"log/slog"

	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/session"
)

// Engine computes allow/deny for a session against a requirement. It reads
// the live session manager on every call; decisions are never made from a
// snapshot captured before an async gap.
type Engine struct {
	sessions *session.Manager
	logger   *slog.Logger
	// observe, when set, is called with every decision (metrics hook).
	observe func(Decision)
}

// NewEngine constructs the decision engine.
func NewEngine(sessions *session.Manager, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{sessions: sessions, logger: logger}
}

// SetObserver installs a decision observer. Intended for metrics.
func (e *Engine) SetObserver(fn func(Decision)) {
	e.observe = fn
}

// Decide evaluates the requirement against the live session. Checks run in
// a fixed order; the first failing check determines the denial reason and
// redirect target.
func (e *Engine) Decide(req Requirement) Decision {
	d := e.decide(req)
	if e.observe != nil {
		e.observe(d)
	}
	return d
}

func (e *Engine) decide(req Requirement) Decision {
	snap := e.sessions.Snapshot()

	if snap.State != session.StateAuthenticated || snap.Identity == nil {
		return deny(ReasonUnauthenticated, TargetLogin)
	}

	ident := snap.Identity
	if ident.IsBlocked || !ident.IsActive {
		// The denial must not wait on the provider round trip; ForceSignOut
		// fires cleanup asynchronously and is idempotent, so concurrent
		// guard evaluations for the same blocked user are harmless.
		e.logger.Warn("unusable account detected during access check, forcing sign-out",
			slog.String("uid", ident.UID),
			slog.Bool("blocked", ident.IsBlocked),
			slog.Bool("active", ident.IsActive))
		e.sessions.ForceSignOut(string(ReasonAccountDisabled))
		return deny(ReasonAccountDisabled, TargetLogin)
	}

	if req.RequireVerifiedEmail && !ident.EmailVerified {
		return deny(ReasonEmailUnverified, TargetVerifyEmail)
	}

	unauthorized := req.UnauthorizedRedirect
	if unauthorized == TargetNone {
		unauthorized = TargetUnauthorized
	}

	// Role and permission checks are a pure conjunction: whichever of the
	// two the requirement carries must pass on its own. A role-only
	// requirement ignores permissions entirely, and vice versa.
	if len(req.AllowedRoles) > 0 && !rbac.SatisfiesAny(ident.Role, req.AllowedRoles) {
		return deny(ReasonRoleDenied, unauthorized)
	}

	if len(req.RequiredPermissions) > 0 {
		var ok bool
		if req.RequireAll {
			ok = ident.HasAllPermissions(req.RequiredPermissions...)
		} else {
			ok = ident.HasAnyPermission(req.RequiredPermissions...)
		}
		if !ok {
			return deny(ReasonPermissionDenied, unauthorized)
		}
	}

	return allow()
}
