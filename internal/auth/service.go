package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/praetor-auth/praetor/internal/identity"
	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/session"
	"github.com/praetor-auth/praetor/internal/shared"
)

// ProviderFunc verifies a non-password credential (an OAuth provider, SSO,
// a test double) and returns the matching identity.
type ProviderFunc func(ctx context.Context, creds session.Credentials) (*identity.Identity, error)

// Service is the identity-provider collaborator backed by postgres. It
// implements session.Authenticator: the session manager consumes it as an
// opaque authenticate/current-user/sign-out boundary.
type Service struct {
	repo      Repository
	logger    *slog.Logger
	providers map[string]ProviderFunc

	mu         sync.Mutex
	currentUID string
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		logger:    logger,
		providers: make(map[string]ProviderFunc),
	}
}

// RegisterProvider wires a named sign-in provider.
func (s *Service) RegisterProvider(name string, fn ProviderFunc) {
	s.providers[strings.ToLower(name)] = fn
}

// Authenticate validates credentials and returns the matching identity.
// Credential rejection, provider cancellation and provider outage all
// surface as typed errors; the caller owns the session state transition.
func (s *Service) Authenticate(ctx context.Context, creds session.Credentials) (*identity.Identity, error) {
	provider := strings.ToLower(strings.TrimSpace(creds.Provider))
	var (
		ident *identity.Identity
		err   error
	)
	switch provider {
	case "", "password":
		ident, err = s.authenticatePassword(ctx, creds.Email, creds.Password)
	default:
		fn, ok := s.providers[provider]
		if !ok {
			return nil, shared.ErrProviderUnavailable
		}
		ident, err = fn(ctx, creds)
	}
	if err != nil {
		return nil, err
	}
	if !ident.Usable() {
		return nil, shared.ErrAccountDisabled
	}

	s.mu.Lock()
	s.currentUID = ident.UID
	s.mu.Unlock()
	return ident, nil
}

func (s *Service) authenticatePassword(ctx context.Context, email, password string) (*identity.Identity, error) {
	ident, hash, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return ident, nil
}

// CurrentUser returns the identity the provider considers signed in, nil
// when there is none. Always re-reads the source of truth so role or status
// changes land on refresh.
func (s *Service) CurrentUser(ctx context.Context) (*identity.Identity, error) {
	s.mu.Lock()
	uid := s.currentUID
	s.mu.Unlock()
	if uid == "" {
		return nil, nil
	}
	ident, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ident, nil
}

// SignOut clears provider-side sign-in state. Idempotent.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.currentUID = ""
	s.mu.Unlock()
	return nil
}

// AdoptRestored marks a restored identity as the provider's current user.
// Called after a successful startup restore from the persisted session.
func (s *Service) AdoptRestored(ident *identity.Identity) {
	if ident == nil {
		return
	}
	s.mu.Lock()
	s.currentUID = ident.UID
	s.mu.Unlock()
}

// Register creates a new account with the default role and permission set.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*identity.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	ident := identity.New(uuid.NewString(), strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(displayName), rbac.RoleUser)
	if err := s.repo.Create(ctx, ident, string(hash)); err != nil {
		return nil, err
	}
	return ident, nil
}

// RegisterSession persists the session metadata row.
func (s *Service) RegisterSession(ctx context.Context, rec SessionRecord) error {
	return s.repo.RegisterSession(ctx, rec)
}

// RemoveSession deletes the session metadata row.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.RemoveSession(ctx, id)
}

var _ session.Authenticator = (*Service)(nil)
