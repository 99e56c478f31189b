package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates a registration conflict.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAuthInProgress indicates a sign-in attempt while another is in flight.
	ErrAuthInProgress = errors.New("authentication already in progress")
	// ErrAlreadyAuthenticated indicates a sign-in attempt over a live session.
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
	// ErrProviderCancelled indicates the user dismissed the provider flow.
	ErrProviderCancelled = errors.New("authentication cancelled by provider")
	// ErrProviderUnavailable indicates the identity provider could not be reached.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrAccountDisabled indicates a blocked or deactivated account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrMisconfigured indicates an access requirement with neither roles nor permissions.
	ErrMisconfigured = errors.New("access requirement needs roles or permissions")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps internal errors to a message safe to show end users.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is invalid"
	case errors.Is(err, ErrEmailTaken):
		return "That email is already registered"
	case errors.Is(err, ErrAuthInProgress):
		return "A sign-in is already in progress"
	case errors.Is(err, ErrAlreadyAuthenticated):
		return "You are already signed in"
	case errors.Is(err, ErrAccountDisabled):
		return "This account has been disabled"
	case errors.Is(err, ErrProviderCancelled):
		return "Sign-in was cancelled"
	case errors.Is(err, ErrProviderUnavailable):
		return "Sign-in is temporarily unavailable"
	default:
		return "Something went wrong, please try again"
	}
}
