package guard

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/praetor-auth/praetor/internal/access"
	"github.com/praetor-auth/praetor/internal/session"
	"github.com/praetor-auth/praetor/internal/shared"
)

// Registry maps route patterns to their access requirements and exposes the
// chain as HTTP middleware. Requirements are validated when registered, so
// a misconfigured route is rejected at startup rather than at request time.
type Registry struct {
	chain    *Chain
	sessions *session.Manager

	mu     sync.RWMutex
	routes map[string]Route
}

// NewRegistry constructs an empty registry over the given chain.
func NewRegistry(chain *Chain, sessions *session.Manager) *Registry {
	return &Registry{
		chain:    chain,
		sessions: sessions,
		routes:   make(map[string]Route),
	}
}

// Register declares the requirement for a route pattern. A nil requirement
// leaves the route behind the authentication gate only.
func (reg *Registry) Register(path string, req *access.Requirement) error {
	if req != nil {
		if err := req.Validate(); err != nil {
			return err
		}
	}
	reg.mu.Lock()
	reg.routes[path] = Route{Path: path, Requirement: req}
	reg.mu.Unlock()
	return nil
}

// RegisterGuest declares a guest-only route (login, register): the chain
// redirects authenticated users away from it.
func (reg *Registry) RegisterGuest(path string) {
	reg.mu.Lock()
	reg.routes[path] = Route{Path: path, GuestOnly: true}
	reg.mu.Unlock()
}

// MustRegister is Register that panics on a misconfigured requirement.
// Intended for static route tables wired at startup.
func (reg *Registry) MustRegister(path string, req *access.Requirement) {
	if err := reg.Register(path, req); err != nil {
		panic(err)
	}
}

// Lookup resolves the route entry for a request path: exact match first,
// then the longest registered prefix. Unregistered paths get the bare
// authentication gate.
func (reg *Registry) Lookup(path string) Route {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if route, ok := reg.routes[path]; ok {
		return route
	}
	best := Route{Path: path}
	bestLen := -1
	for pattern, route := range reg.routes {
		if len(pattern) > bestLen && strings.HasPrefix(path, strings.TrimSuffix(pattern, "/")+"/") {
			best = route
			bestLen = len(pattern)
		}
	}
	best.Path = path
	return best
}

// EvaluateAccess is the chain entry point for navigation code: it resolves
// the route for a path and runs the guards. TargetNone means access
// proceeds.
func (reg *Registry) EvaluateAccess(ctx context.Context, path string) access.Target {
	return reg.chain.Evaluate(ctx, reg.Lookup(path))
}

// Middleware evaluates the chain before the wrapped handler runs. A denial
// answers with a redirect to the chain's target; the handler never sees the
// request.
func (reg *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := reg.EvaluateAccess(r.Context(), r.URL.Path)
		if target != access.TargetNone {
			http.Redirect(w, r, string(target), http.StatusSeeOther)
			return
		}
		if ident := reg.sessions.CurrentIdentity(); ident != nil {
			r = r.WithContext(shared.ContextWithIdentity(r.Context(), ident))
		}
		next.ServeHTTP(w, r)
	})
}
