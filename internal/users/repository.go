package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praetor-auth/praetor/internal/identity"
	"github.com/praetor-auth/praetor/internal/platform/db"
	"github.com/praetor-auth/praetor/internal/shared"
)

// Repository provides PostgreSQL backed persistence for user management.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `uid, email, display_name, role, permissions, is_active, is_blocked, email_verified, created_at, updated_at`

// ListAccounts returns all user accounts ordered by creation time.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.UID, &a.Email, &a.DisplayName, &a.Role, &a.Permissions,
			&a.IsActive, &a.IsBlocked, &a.EmailVerified, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetByUID loads one account as an identity record.
func (r *Repository) GetByUID(ctx context.Context, uid string) (*identity.Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE uid = $1`, uid)
	var ident identity.Identity
	if err := row.Scan(&ident.UID, &ident.Email, &ident.DisplayName, &ident.Role, &ident.Permissions,
		&ident.IsActive, &ident.IsBlocked, &ident.EmailVerified, &ident.CreatedAt, &ident.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ident, nil
}

// Save persists account mutations together with their audit entry in one
// transaction, so a recorded change is always an applied change.
func (r *Repository) Save(ctx context.Context, ident *identity.Identity, audit shared.AuditLog) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET role=$2, permissions=$3, is_active=$4, is_blocked=$5, email_verified=$6, updated_at=$7 WHERE uid=$1`,
			ident.UID, ident.Role, ident.Permissions, ident.IsActive, ident.IsBlocked, ident.EmailVerified, ident.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx, `INSERT INTO audit_logs (actor_uid, action, entity, entity_id, meta, occurred_at) VALUES ($1,$2,$3,$4,'{}',NOW())`,
			audit.ActorUID, audit.Action, audit.Entity, audit.EntityID)
		return err
	})
}
