package users

import (
	"context"
	"fmt"

	"github.com/praetor-auth/praetor/internal/identity"
	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/session"
	"github.com/praetor-auth/praetor/internal/shared"
)

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	GetByUID(ctx context.Context, uid string) (*identity.Identity, error)
	Save(ctx context.Context, ident *identity.Identity, audit shared.AuditLog) error
}

// Service handles user management business logic. Mutations go through the
// identity record's transition helpers so the blocked-implies-inactive
// pairing cannot be bypassed.
type Service struct {
	repo     RepositoryPort
	sessions *session.Manager
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, sessions *session.Manager) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// ListAccounts returns all user accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// Block marks an account blocked (and therefore inactive).
func (s *Service) Block(ctx context.Context, actorUID, uid string) error {
	return s.mutate(ctx, actorUID, uid, shared.AuditActionBlocked, func(i *identity.Identity) *identity.Identity {
		return i.Blocked()
	})
}

// Unblock lifts a block and reactivates the account.
func (s *Service) Unblock(ctx context.Context, actorUID, uid string) error {
	return s.mutate(ctx, actorUID, uid, shared.AuditActionUnblocked, func(i *identity.Identity) *identity.Identity {
		return i.Unblocked()
	})
}

// SetRole assigns a role from the known hierarchy.
func (s *Service) SetRole(ctx context.Context, actorUID, uid, role string) error {
	if !rbac.IsKnown(role) {
		return fmt.Errorf("%w: unknown role %q", shared.ErrMisconfigured, role)
	}
	return s.mutate(ctx, actorUID, uid, shared.AuditActionRoleChanged, func(i *identity.Identity) *identity.Identity {
		return i.WithRole(role)
	})
}

func (s *Service) mutate(ctx context.Context, actorUID, uid, action string, apply func(*identity.Identity) *identity.Identity) error {
	ident, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	updated := apply(ident)
	if err := s.repo.Save(ctx, updated, shared.AuditLog{
		ActorUID: actorUID,
		Action:   action,
		Entity:   "user",
		EntityID: uid,
	}); err != nil {
		return err
	}
	// If the mutated account is the one signed in, refresh the session so
	// guards and the page-level revalidator see the change immediately.
	if current := s.sessions.CurrentIdentity(); current != nil && current.UID == uid {
		if err := s.sessions.Refresh(ctx); err != nil {
			return nil
		}
	}
	return nil
}
