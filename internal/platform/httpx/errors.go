// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/praetor-auth/praetor/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrEmailTaken):
		Problem(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrAccountDisabled):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrAuthInProgress), errors.Is(err, shared.ErrAlreadyAuthenticated):
		Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrMisconfigured):
		Problem(w, http.StatusInternalServerError, "Misconfigured", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
