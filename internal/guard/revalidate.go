package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/praetor-auth/praetor/internal/access"
	"github.com/praetor-auth/praetor/internal/session"
)

// Revalidator mirrors the middleware check at page level: while a protected
// view is active, any session change (role downgrade, block, sign-out)
// re-runs the chain for that view and forces navigation away if access no
// longer holds.
type Revalidator struct {
	registry *Registry
	navigate func(access.Target)
	logger   *slog.Logger

	mu     sync.Mutex
	active string
}

// NewRevalidator constructs a revalidator. navigate is invoked with the
// redirect target whenever the active route stops being accessible.
func NewRevalidator(registry *Registry, navigate func(access.Target), logger *slog.Logger) *Revalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Revalidator{registry: registry, navigate: navigate, logger: logger}
}

// SetActive records the route currently on screen.
func (v *Revalidator) SetActive(path string) {
	v.mu.Lock()
	v.active = path
	v.mu.Unlock()
}

// ClearActive forgets the active route.
func (v *Revalidator) ClearActive() {
	v.mu.Lock()
	v.active = ""
	v.mu.Unlock()
}

// Watch subscribes to session changes and revalidates the active route on
// each one. It blocks until ctx is cancelled; run it in its own goroutine.
func (v *Revalidator) Watch(ctx context.Context, sessions *session.Manager) {
	events, cancel := sessions.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-events:
			if !ok {
				return
			}
			v.revalidate(ctx, snap)
		}
	}
}

func (v *Revalidator) revalidate(ctx context.Context, snap session.Snapshot) {
	v.mu.Lock()
	path := v.active
	v.mu.Unlock()
	if path == "" {
		return
	}
	// Evaluate against live state, not the snapshot that triggered us; the
	// session may have moved again since the event was queued.
	target := v.registry.EvaluateAccess(ctx, path)
	if target == access.TargetNone {
		return
	}
	v.logger.Info("active route lost access, navigating away",
		slog.String("path", path),
		slog.String("state", snap.State.String()),
		slog.String("target", string(target)))
	v.ClearActive()
	if v.navigate != nil {
		v.navigate(target)
	}
}
