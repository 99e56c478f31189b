package session

import "github.com/praetor-auth/praetor/internal/identity"

// State is the authentication lifecycle state of the process session.
type State int

const (
	// StateUnauthenticated means no identity is held.
	StateUnauthenticated State = iota
	// StateAuthenticating means a sign-in attempt is in flight.
	StateAuthenticating
	// StateAuthenticated means an identity is held and usable.
	StateAuthenticated
	// StateSigningOut means teardown is in progress.
	StateSigningOut
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateSigningOut:
		return "signing_out"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the session. Identity is non-nil
// exactly when State is StateAuthenticated.
type Snapshot struct {
	State     State
	SessionID string
	Identity  *identity.Identity
	LastError error
}

// Credentials carries an opaque sign-in request for the authenticator
// collaborator. Provider selects the flow; empty means password.
type Credentials struct {
	Provider string
	Email    string
	Password string
	// Token carries a provider-issued credential for non-password flows.
	Token string
}
