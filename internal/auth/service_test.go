package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/praetor-auth/praetor/internal/auth"
	"github.com/praetor-auth/praetor/internal/identity"
	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/session"
	"github.com/praetor-auth/praetor/internal/shared"
	_ "github.com/praetor-auth/praetor/testing"
)

type stubRepo struct {
	mu       sync.Mutex
	users    map[string]*identity.Identity
	hashes   map[string]string
	sessions map[string]auth.SessionRecord
	swept    int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:    make(map[string]*identity.Identity),
		hashes:   make(map[string]string),
		sessions: make(map[string]auth.SessionRecord),
	}
}

func (s *stubRepo) add(ident *identity.Identity, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.mu.Lock()
	s.users[ident.UID] = ident
	s.hashes[ident.Email] = string(hash)
	s.mu.Unlock()
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*identity.Identity, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.hashes[email]
	if !ok {
		return nil, "", shared.ErrNotFound
	}
	for _, u := range s.users {
		if u.Email == email {
			return u.Clone(), hash, nil
		}
	}
	return nil, "", shared.ErrNotFound
}

func (s *stubRepo) FindByUID(ctx context.Context, uid string) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *stubRepo) Create(ctx context.Context, ident *identity.Identity, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[ident.Email]; ok {
		return shared.ErrEmailTaken
	}
	s.users[ident.UID] = ident.Clone()
	s.hashes[ident.Email] = passwordHash
	return nil
}

func (s *stubRepo) UpdateAccount(ctx context.Context, ident *identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[ident.UID]; !ok {
		return shared.ErrNotFound
	}
	s.users[ident.UID] = ident.Clone()
	return nil
}

func (s *stubRepo) RegisterSession(ctx context.Context, rec auth.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.ID] = rec
	return nil
}

func (s *stubRepo) RemoveSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) SweepExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.sessions {
		if rec.ExpiresAt.Before(before) {
			delete(s.sessions, id)
			s.swept++
		}
	}
	return s.swept, nil
}

func TestAuthenticatePassword(t *testing.T) {
	repo := newStubRepo()
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser)
	repo.add(ident, "secret123")
	svc := auth.NewService(repo, nil)

	got, err := svc.Authenticate(context.Background(), session.Credentials{Email: "kim@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UID)

	_, err = svc.Authenticate(context.Background(), session.Credentials{Email: "kim@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), session.Credentials{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsDisabledAccounts(t *testing.T) {
	repo := newStubRepo()
	repo.add(identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser).Blocked(), "secret123")
	svc := auth.NewService(repo, nil)

	_, err := svc.Authenticate(context.Background(), session.Credentials{Email: "kim@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, shared.ErrAccountDisabled)
}

func TestAuthenticateProviders(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo, nil)

	_, err := svc.Authenticate(context.Background(), session.Credentials{Provider: "google", Token: "tok"})
	assert.ErrorIs(t, err, shared.ErrProviderUnavailable)

	ident := identity.New("u-2", "lee@example.com", "Lee", rbac.RoleManager)
	svc.RegisterProvider("google", func(ctx context.Context, creds session.Credentials) (*identity.Identity, error) {
		if creds.Token != "tok" {
			return nil, shared.ErrInvalidCredentials
		}
		return ident, nil
	})

	got, err := svc.Authenticate(context.Background(), session.Credentials{Provider: "google", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "u-2", got.UID)
}

func TestCurrentUserTracksSignInState(t *testing.T) {
	repo := newStubRepo()
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser)
	repo.add(ident, "secret123")
	svc := auth.NewService(repo, nil)

	got, err := svc.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Authenticate(context.Background(), session.Credentials{Email: "kim@example.com", Password: "secret123"})
	require.NoError(t, err)

	// CurrentUser re-reads the source of truth, so later mutations land.
	repo.mu.Lock()
	repo.users["u-1"] = ident.WithRole(rbac.RoleManager)
	repo.mu.Unlock()

	got, err = svc.CurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rbac.RoleManager, got.Role)

	require.NoError(t, svc.SignOut(context.Background()))
	got, err = svc.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAdoptRestored(t *testing.T) {
	repo := newStubRepo()
	ident := identity.New("u-1", "kim@example.com", "Kim", rbac.RoleUser)
	repo.add(ident, "secret123")
	svc := auth.NewService(repo, nil)

	svc.AdoptRestored(ident)
	got, err := svc.CurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.UID)
}

func TestRegister(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo, nil)

	ident, err := svc.Register(context.Background(), "New@Example.com", "secret123", " Kim ")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", ident.Email)
	assert.Equal(t, "Kim", ident.DisplayName)
	assert.Equal(t, rbac.RoleUser, ident.Role)
	assert.ElementsMatch(t, rbac.DefaultPermissionsFor(rbac.RoleUser), ident.Permissions)

	_, err = svc.Register(context.Background(), "new@example.com", "secret123", "Kim")
	assert.ErrorIs(t, err, shared.ErrEmailTaken)

	// The stored hash verifies against the original password.
	_, got, err := repo.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got), []byte("secret123")))
}
