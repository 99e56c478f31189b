package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/praetor-auth/praetor/internal/access"
	"github.com/praetor-auth/praetor/internal/auth"
	"github.com/praetor-auth/praetor/internal/guard"
	"github.com/praetor-auth/praetor/internal/observability"
	"github.com/praetor-auth/praetor/internal/platform/httpx"
	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/roles"
	"github.com/praetor-auth/praetor/internal/session"
	"github.com/praetor-auth/praetor/internal/shared"
	"github.com/praetor-auth/praetor/internal/users"
	"github.com/praetor-auth/praetor/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	Sessions     *session.Manager
	Guards       *guard.Registry
	CSRFManager  *shared.CSRFManager
	AuthHandler  *auth.Handler
	UsersHandler *users.Handler
	RolesHandler *roles.Handler
	JobsHandler  *jobs.Handler
	Metrics      *observability.Metrics
}

// RegisterGuardRoutes declares the access requirement for every protected
// route. Requirements are validated at registration: a route with neither
// roles nor permissions panics here, before the server accepts traffic.
func RegisterGuardRoutes(reg *guard.Registry) {
	reg.RegisterGuest("/auth/login")
	reg.RegisterGuest("/auth/register")

	// Authentication gate only.
	reg.MustRegister("/auth/logout", nil)
	reg.MustRegister("/auth/me", nil)
	reg.MustRegister("/auth/verify-email", nil)

	reg.MustRegister("/dashboard", &access.Requirement{
		RequiredPermissions: []string{rbac.PermDashboardView},
	})
	reg.MustRegister("/reports", &access.Requirement{
		AllowedRoles:        []string{rbac.RoleManager},
		RequiredPermissions: []string{rbac.PermReportsView},
	})
	reg.MustRegister("/settings", &access.Requirement{
		RequiredPermissions:  []string{rbac.PermSettingsEdit},
		RequireVerifiedEmail: true,
	})
	reg.MustRegister("/admin", &access.Requirement{
		AllowedRoles: []string{rbac.RoleAdmin},
	})
	reg.MustRegister("/admin/users", &access.Requirement{
		AllowedRoles:        []string{rbac.RoleAdmin},
		RequiredPermissions: []string{rbac.PermUsersView},
	})
	// Mutating user endpoints live under /admin/users/{uid}/...
	reg.MustRegister("/admin/users/", &access.Requirement{
		AllowedRoles:        []string{rbac.RoleAdmin},
		RequiredPermissions: []string{rbac.PermUsersEdit, rbac.PermUsersManage},
	})
	reg.MustRegister("/admin/roles", &access.Requirement{
		RequiredPermissions: []string{rbac.PermRolesView},
	})
	reg.MustRegister("/admin/jobs", &access.Requirement{
		AllowedRoles: []string{rbac.RoleAdmin},
	})
}

// NewRouter constructs the chi.Router with Praetor defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Sessions:    params.Sessions,
		CSRFManager: params.CSRFManager,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	r.Get(string(access.TargetUnauthorized), func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you do not have access to that resource")
	})

	loginLimit := httprate.Limit(params.Config.LoginRateLimit, params.Config.LoginRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP))

	// Everything below runs behind the guard chain.
	r.Group(func(r chi.Router) {
		r.Use(params.Guards.Middleware)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", func(w http.ResponseWriter, req *http.Request) {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to continue")
			})
			r.Get("/verify-email", func(w http.ResponseWriter, req *http.Request) {
				httpx.Problem(w, http.StatusForbidden, "Email Verification Required", "verify your email address to continue")
			})
			params.AuthHandler.MountRoutes(r, loginLimit)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/", landing(params, "admin"))
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			if params.JobsHandler != nil {
				r.Route("/jobs", params.JobsHandler.MountRoutes)
			}
		})
		r.Get("/dashboard", landing(params, "dashboard"))
		r.Get("/reports", landing(params, "reports"))
		r.Get("/settings", landing(params, "settings"))
	})

	return r
}

func landing(params RouterParams, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"page": name}
		if ident := shared.IdentityFromContext(r.Context()); ident != nil {
			payload["uid"] = ident.UID
			payload["role"] = ident.Role
		}
		httpx.JSON(w, http.StatusOK, payload)
	}
}
