package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praetor-auth/praetor/internal/identity"
	"github.com/praetor-auth/praetor/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*identity.Identity, string, error)
	FindByUID(ctx context.Context, uid string) (*identity.Identity, error)
	Create(ctx context.Context, ident *identity.Identity, passwordHash string) error
	UpdateAccount(ctx context.Context, ident *identity.Identity) error
	RegisterSession(ctx context.Context, rec SessionRecord) error
	RemoveSession(ctx context.Context, id string) error
	SweepExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

const uniqueViolation = "23505"

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `uid, email, display_name, role, permissions, is_active, is_blocked, email_verified, created_at, updated_at`

// FindByEmail fetches a user and their password hash by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*identity.Identity, string, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE lower(email) = lower($1)`, email)
	var ident identity.Identity
	var hash string
	if err := row.Scan(&ident.UID, &ident.Email, &ident.DisplayName, &ident.Role, &ident.Permissions,
		&ident.IsActive, &ident.IsBlocked, &ident.EmailVerified, &ident.CreatedAt, &ident.UpdatedAt, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", shared.ErrNotFound
		}
		return nil, "", err
	}
	return &ident, hash, nil
}

// FindByUID fetches a user by uid.
func (r *PGRepository) FindByUID(ctx context.Context, uid string) (*identity.Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
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

// Create inserts a new user row. A duplicate email maps to ErrEmailTaken.
func (r *PGRepository) Create(ctx context.Context, ident *identity.Identity, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`, password_hash) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		ident.UID, ident.Email, ident.DisplayName, ident.Role, ident.Permissions,
		ident.IsActive, ident.IsBlocked, ident.EmailVerified, ident.CreatedAt, ident.UpdatedAt, passwordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shared.ErrEmailTaken
		}
		return err
	}
	return nil
}

// UpdateAccount persists role, permission and status fields.
func (r *PGRepository) UpdateAccount(ctx context.Context, ident *identity.Identity) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role=$2, permissions=$3, is_active=$4, is_blocked=$5, email_verified=$6, updated_at=$7 WHERE uid=$1`,
		ident.UID, ident.Role, ident.Permissions, ident.IsActive, ident.IsBlocked, ident.EmailVerified, ident.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RegisterSession persists a sign-in record for auditing.
func (r *PGRepository) RegisterSession(ctx context.Context, rec SessionRecord) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_uid, created_at, expires_at, ip, ua) VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.UserUID,
		pgtype.Timestamptz{Time: rec.CreatedAt.UTC(), Valid: true},
		pgtype.Timestamptz{Time: rec.ExpiresAt.UTC(), Valid: true},
		pgtype.Text{String: rec.IP, Valid: rec.IP != ""},
		pgtype.Text{String: rec.UserAgent, Valid: rec.UserAgent != ""})
	return err
}

// RemoveSession deletes a session record.
func (r *PGRepository) RemoveSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// SweepExpiredSessions deletes records that expired before the cutoff.
func (r *PGRepository) SweepExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
