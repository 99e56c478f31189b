package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/praetor-auth/praetor/internal/access"
	"github.com/praetor-auth/praetor/internal/observability"
	"github.com/praetor-auth/praetor/internal/platform/httpx"
	"github.com/praetor-auth/praetor/internal/session"
	"github.com/praetor-auth/praetor/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows. It only drives the
// session manager; all authorization happens in the guard chain.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	sessions   *session.Manager
	csrf       *shared.CSRFManager
	audit      *shared.AuditLogger
	sessionTTL time.Duration
	validator  *validator.Validate
	metrics    *observability.Metrics
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *session.Manager, csrf *shared.CSRFManager, audit *shared.AuditLogger, sessionTTL time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		service:    service,
		sessions:   sessions,
		csrf:       csrf,
		audit:      audit,
		sessionTTL: sessionTTL,
		validator:  validator.New(),
	}
}

// SetMetrics installs the metrics sink used for sign-in attempt counters.
func (h *Handler) SetMetrics(m *observability.Metrics) {
	h.metrics = m
}

// MountRoutes registers auth routes on the provided router. The limiter, when
// given, throttles login attempts only; other routes stay unthrottled.
func (h *Handler) MountRoutes(r chi.Router, loginLimiter func(http.Handler) http.Handler) {
	if loginLimiter != nil {
		r.With(loginLimiter).Post("/login", h.handleLogin)
	} else {
		r.Post("/login", h.handleLogin)
	}
	r.Post("/logout", h.handleLogout)
	r.Post("/register", h.handleRegister)
	r.Get("/me", h.handleMe)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Provider string
}

type registerForm struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=8"`
	DisplayName string `validate:"required,min=2"`
}

type sessionResponse struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CSRFToken string `json:"csrf_token,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
		return
	}
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Provider: r.PostFormValue("provider"),
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	ident, err := h.sessions.SignIn(r.Context(), session.Credentials{
		Provider: form.Provider,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		h.metrics.RecordAuthAttempt("failure")
		h.recordAudit(r, shared.AuditActionSignInFailed, form.Email, map[string]any{"error": err.Error()})
		switch {
		case errors.Is(err, shared.ErrAuthInProgress), errors.Is(err, shared.ErrAlreadyAuthenticated):
			httpx.Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
		case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrAccountDisabled):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
		case errors.Is(err, shared.ErrProviderCancelled):
			httpx.Problem(w, http.StatusBadRequest, "Cancelled", shared.UserSafeMessage(err))
		default:
			h.logger.Error("sign-in failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", shared.UserSafeMessage(shared.ErrProviderUnavailable))
		}
		return
	}

	h.metrics.RecordAuthAttempt("success")
	sid := h.sessions.SessionID()
	if err := h.service.RegisterSession(r.Context(), SessionRecord{
		ID:        sid,
		UserUID:   ident.UID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(h.sessionTTL),
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}); err != nil {
		h.logger.Warn("register session record", slog.Any("error", err))
	}
	h.recordAudit(r, shared.AuditActionSignIn, ident.UID, nil)

	httpx.JSON(w, http.StatusOK, sessionResponse{
		UID:       ident.UID,
		Email:     ident.Email,
		Role:      ident.Role,
		CSRFToken: h.csrf.TokenFor(sid),
		Redirect:  string(access.Landing(ident.Role)),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	snap := h.sessions.Snapshot()
	if snap.State == session.StateAuthenticated {
		if err := h.service.RemoveSession(r.Context(), snap.SessionID); err != nil {
			h.logger.Warn("remove session record", slog.Any("error", err))
		}
		h.recordAudit(r, shared.AuditActionSignOut, snap.Identity.UID, nil)
	}
	h.sessions.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
		return
	}
	form := registerForm{
		Email:       r.PostFormValue("email"),
		Password:    r.PostFormValue("password"),
		DisplayName: r.PostFormValue("display_name"),
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email, password and display name are required")
		return
	}
	ident, err := h.service.Register(r.Context(), form.Email, form.Password, form.DisplayName)
	if err != nil {
		if errors.Is(err, shared.ErrEmailTaken) {
			httpx.Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("register account", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, sessionResponse{UID: ident.UID, Email: ident.Email, Role: ident.Role})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ident := h.sessions.CurrentIdentity()
	if ident == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{UID: ident.UID, Email: ident.Email, Role: ident.Role})
}

func (h *Handler) recordAudit(r *http.Request, action, actor string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorUID: actor,
		Action:   action,
		Entity:   "session",
		EntityID: h.sessions.SessionID(),
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record failed", slog.Any("error", err))
	}
}
