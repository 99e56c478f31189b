package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/praetor-auth/praetor/internal/platform/httpx"
	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/shared"
)

// Handler manages user administration endpoints. Route-level authorization
// is enforced by the guard chain upstream; handlers only read the resolved
// identity for audit attribution.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listAccounts)
	r.Post("/{uid}/block", h.blockAccount)
	r.Post("/{uid}/unblock", h.unblockAccount)
	r.Post("/{uid}/role", h.setRole)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": accounts})
}

func (h *Handler) blockAccount(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if err := h.service.Block(r.Context(), h.actorUID(r), uid); err != nil {
		h.logger.Error("block account", slog.String("uid", uid), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unblockAccount(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if err := h.service.Unblock(r.Context(), h.actorUID(r), uid); err != nil {
		h.logger.Error("unblock account", slog.String("uid", uid), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
		return
	}
	role := r.PostFormValue("role")
	if !rbac.IsKnown(role) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
		return
	}
	if err := h.service.SetRole(r.Context(), h.actorUID(r), uid, role); err != nil {
		h.logger.Error("set role", slog.String("uid", uid), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) actorUID(r *http.Request) string {
	if ident := shared.IdentityFromContext(r.Context()); ident != nil {
		return ident.UID
	}
	return ""
}
