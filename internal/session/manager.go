package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-auth/praetor/internal/identity"
	"github.com/praetor-auth/praetor/internal/shared"
)

// Authenticator is the identity-provider collaborator consumed by the
// session. Credential verification itself is out of scope here.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*identity.Identity, error)
	// CurrentUser returns the identity the provider considers signed in, or
	// nil when there is none. Used for startup restore and refresh.
	CurrentUser(ctx context.Context) (*identity.Identity, error)
	// SignOut tears down provider-side session state. Best effort.
	SignOut(ctx context.Context) error
}

// Store persists the current session across process restarts.
type Store interface {
	Persist(ctx context.Context, sessionID string, ident *identity.Identity) error
	Load(ctx context.Context) (string, *identity.Identity, error)
	Clear(ctx context.Context) error
}

// Options tune Manager construction.
type Options struct {
	// RestoreAttempts bounds the startup restore poll. Zero means 10.
	RestoreAttempts int
	// RestoreInterval is the pause between restore attempts. Zero means 250ms.
	RestoreInterval time.Duration
	// ForcedSignOutHook is invoked (outside the lock) after a forced
	// sign-out, e.g. to enqueue cleanup work.
	ForcedSignOutHook func(uid, reason string)
	Logger            *slog.Logger
}

const (
	defaultRestoreAttempts = 10
	defaultRestoreInterval = 250 * time.Millisecond
	cleanupTimeout         = 5 * time.Second
)

// Manager is the single process-wide session authority. All guards read
// authentication state from it; only the authentication flow writes to it.
type Manager struct {
	authn Authenticator
	store Store

	restoreAttempts int
	restoreInterval time.Duration
	forcedHook      func(uid, reason string)
	logger          *slog.Logger

	mu          sync.Mutex
	state       State
	ident       *identity.Identity
	sessionID   string
	lastErr     error
	subscribers map[uint64]chan Snapshot
	nextSub     uint64
}

// NewManager constructs the session manager. It starts Unauthenticated;
// call Restore once at startup to recover a prior session.
func NewManager(authn Authenticator, store Store, opts Options) *Manager {
	attempts := opts.RestoreAttempts
	if attempts <= 0 {
		attempts = defaultRestoreAttempts
	}
	interval := opts.RestoreInterval
	if interval <= 0 {
		interval = defaultRestoreInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		authn:           authn,
		store:           store,
		restoreAttempts: attempts,
		restoreInterval: interval,
		forcedHook:      opts.ForcedSignOutHook,
		logger:          logger,
		state:           StateUnauthenticated,
		subscribers:     make(map[uint64]chan Snapshot),
	}
}

// SignIn runs one authentication attempt. Exactly one attempt may be in
// flight; a concurrent call is rejected with ErrAuthInProgress rather than
// interleaved, so two identities can never race to set session state.
func (m *Manager) SignIn(ctx context.Context, creds Credentials) (*identity.Identity, error) {
	m.mu.Lock()
	switch m.state {
	case StateAuthenticating, StateSigningOut:
		m.mu.Unlock()
		return nil, shared.ErrAuthInProgress
	case StateAuthenticated:
		m.mu.Unlock()
		return nil, shared.ErrAlreadyAuthenticated
	}
	m.transitionLocked(StateAuthenticating, nil, nil)
	m.mu.Unlock()

	ident, err := m.authn.Authenticate(ctx, creds)

	m.mu.Lock()
	if m.state != StateAuthenticating {
		// Torn down while the provider call was in flight; discard.
		m.mu.Unlock()
		return nil, shared.ErrAuthInProgress
	}
	if err != nil {
		m.transitionLocked(StateUnauthenticated, nil, err)
		m.mu.Unlock()
		return nil, err
	}
	if !ident.Usable() {
		m.transitionLocked(StateUnauthenticated, nil, shared.ErrAccountDisabled)
		m.mu.Unlock()
		return nil, shared.ErrAccountDisabled
	}
	m.sessionID = uuid.NewString()
	m.transitionLocked(StateAuthenticated, ident.Clone(), nil)
	sid := m.sessionID
	snapshot := m.ident.Clone()
	m.mu.Unlock()

	m.persist(ctx, sid, snapshot)
	return snapshot, nil
}

// SignOut ends the current session. Idempotent: signing out an already
// unauthenticated session is a no-op. Provider-side teardown runs
// asynchronously and is best effort.
func (m *Manager) SignOut(ctx context.Context) {
	m.teardown("sign_out", false)
}

// ForceSignOut unconditionally tears the session down, bypassing any
// confirmation flow. Triggered by guards when a blocked or deactivated
// account is detected mid-session. Safe to call repeatedly or concurrently.
func (m *Manager) ForceSignOut(reason string) {
	m.teardown(reason, true)
}

func (m *Manager) teardown(reason string, forced bool) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	uid := m.ident.UID
	m.transitionLocked(StateSigningOut, nil, nil)
	m.transitionLocked(StateUnauthenticated, nil, nil)
	m.sessionID = ""
	hook := m.forcedHook
	m.mu.Unlock()

	// Cleanup never blocks the caller; a guard denial must not wait on the
	// provider round trip.
	go m.completeSignOut(uid, reason)
	if forced && hook != nil {
		hook(uid, reason)
	}
}

func (m *Manager) completeSignOut(uid, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := m.authn.SignOut(ctx); err != nil {
		m.logger.Warn("provider sign-out failed",
			slog.String("uid", uid), slog.String("reason", reason), slog.Any("error", err))
	}
	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("clear persisted session failed", slog.Any("error", err))
		}
	}
}

// Refresh re-fetches the identity from the source of truth and replaces the
// session's copy without a state change. If the account is gone or no
// longer usable the session is forcibly torn down.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	prev := m.ident.Clone()
	m.mu.Unlock()

	fresh, err := m.authn.CurrentUser(ctx)
	if err != nil {
		m.logger.Warn("identity refresh failed, keeping cached copy", slog.Any("error", err))
		return err
	}

	if fresh == nil || !fresh.Usable() {
		m.ForceSignOut("refresh_unusable")
		return nil
	}

	m.mu.Lock()
	if m.state != StateAuthenticated {
		// Signed out during the fetch; the result is stale.
		m.mu.Unlock()
		return nil
	}
	m.ident = fresh.Clone()
	changed := !prev.Same(fresh)
	if changed {
		m.notifyLocked()
	}
	sid := m.sessionID
	snapshot := m.ident.Clone()
	m.mu.Unlock()

	m.persist(ctx, sid, snapshot)
	return nil
}

// Restore attempts to recover a prior session at startup. The provider is
// polled a bounded number of times (it may still be initialising); after
// the attempts are exhausted the session settles Unauthenticated. Restore
// failure is never fatal.
func (m *Manager) Restore(ctx context.Context) {
	var lastErr error
	for attempt := 1; attempt <= m.restoreAttempts; attempt++ {
		ident, err := m.authn.CurrentUser(ctx)
		if err == nil {
			if ident == nil || !ident.Usable() {
				m.settleUnauthenticated(nil)
				return
			}
			m.adoptRestored(ctx, ident)
			return
		}
		lastErr = err
		m.logger.Debug("session restore attempt failed",
			slog.Int("attempt", attempt), slog.Any("error", err))
		select {
		case <-ctx.Done():
			m.settleUnauthenticated(ctx.Err())
			return
		case <-time.After(m.restoreInterval):
		}
	}
	m.logger.Warn("session restore exhausted, starting unauthenticated", slog.Any("error", lastErr))
	m.settleUnauthenticated(lastErr)
}

func (m *Manager) adoptRestored(ctx context.Context, ident *identity.Identity) {
	sid := ""
	if m.store != nil {
		if storedSID, stored, err := m.store.Load(ctx); err == nil && stored != nil && stored.UID == ident.UID {
			sid = storedSID
		}
	}
	if sid == "" {
		sid = uuid.NewString()
	}

	m.mu.Lock()
	if m.state != StateUnauthenticated {
		m.mu.Unlock()
		return
	}
	m.sessionID = sid
	m.transitionLocked(StateAuthenticated, ident.Clone(), nil)
	snapshot := m.ident.Clone()
	m.mu.Unlock()

	m.persist(ctx, sid, snapshot)
}

func (m *Manager) settleUnauthenticated(err error) {
	m.mu.Lock()
	if m.state == StateUnauthenticated && err == nil {
		m.mu.Unlock()
		return
	}
	if m.state == StateUnauthenticated {
		m.lastErr = err
		m.mu.Unlock()
		return
	}
	m.transitionLocked(StateUnauthenticated, nil, err)
	m.mu.Unlock()
}

func (m *Manager) persist(ctx context.Context, sid string, ident *identity.Identity) {
	if m.store == nil || sid == "" || ident == nil {
		return
	}
	if err := m.store.Persist(ctx, sid, ident); err != nil {
		m.logger.Warn("persist session failed", slog.Any("error", err))
	}
}

// transitionLocked applies a state change and notifies subscribers. The
// identity-present-iff-authenticated invariant is enforced here.
func (m *Manager) transitionLocked(state State, ident *identity.Identity, err error) {
	m.state = state
	m.lastErr = err
	if state == StateAuthenticated {
		m.ident = ident
	} else {
		m.ident = nil
	}
	m.notifyLocked()
}

func (m *Manager) notifyLocked() {
	snap := m.snapshotLocked()
	for _, ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; drop rather than block the state machine.
		}
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:     m.state,
		SessionID: m.sessionID,
		Identity:  m.ident.Clone(),
		LastError: m.lastErr,
	}
}

// Subscribe registers a watcher for session-changed events. The returned
// cancel func must be called to release the subscription.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if c, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(c)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

// Snapshot returns a point-in-time copy of the session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// CurrentIdentity returns the authenticated identity, or nil.
func (m *Manager) CurrentIdentity() *identity.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ident.Clone()
}

// IsAuthenticated reports whether an identity is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated
}

// SessionID returns the current session identifier, empty when signed out.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// LastError returns the most recent authentication error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// HasRole reports whether the current identity satisfies the role.
func (m *Manager) HasRole(role string) bool {
	return m.CurrentIdentity().HasRole(role)
}

// HasAnyRole reports whether the current identity satisfies any role.
func (m *Manager) HasAnyRole(roles ...string) bool {
	return m.CurrentIdentity().HasAnyRole(roles...)
}

// HasPermission reports whether the current identity holds the permission.
func (m *Manager) HasPermission(perm string) bool {
	return m.CurrentIdentity().HasPermission(perm)
}

// HasAnyPermission reports whether the current identity holds any of the
// permissions.
func (m *Manager) HasAnyPermission(perms ...string) bool {
	return m.CurrentIdentity().HasAnyPermission(perms...)
}
