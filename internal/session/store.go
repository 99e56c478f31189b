package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/praetor-auth/praetor/internal/identity"
)

const sessionKey = "praetor:session:current"

// storePayload is the wire form kept in redis.
type storePayload struct {
	SessionID string    `json:"session_id"`
	SavedAt   time.Time `json:"saved_at"`

	UID           string   `json:"uid"`
	Email         string   `json:"email"`
	DisplayName   string   `json:"display_name"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions"`
	IsActive      bool     `json:"is_active"`
	IsBlocked     bool     `json:"is_blocked"`
	EmailVerified bool     `json:"email_verified"`
}

// RedisStore persists the current session in Redis so a restart can restore
// it without a fresh provider round trip.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore with the given entry lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Persist writes the identity under the fixed session key.
func (s *RedisStore) Persist(ctx context.Context, sessionID string, ident *identity.Identity) error {
	if ident == nil {
		return errors.New("session: nil identity")
	}
	payload := storePayload{
		SessionID:     sessionID,
		SavedAt:       time.Now().UTC(),
		UID:           ident.UID,
		Email:         ident.Email,
		DisplayName:   ident.DisplayName,
		Role:          ident.Role,
		Permissions:   ident.Permissions,
		IsActive:      ident.IsActive,
		IsBlocked:     ident.IsBlocked,
		EmailVerified: ident.EmailVerified,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey, data, s.ttl).Err()
}

// Load returns the persisted session, or ("", nil, nil) when absent.
func (s *RedisStore) Load(ctx context.Context) (string, *identity.Identity, error) {
	data, err := s.client.Get(ctx, sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil, nil
		}
		return "", nil, err
	}
	var payload storePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", nil, err
	}
	ident := &identity.Identity{
		UID:           payload.UID,
		Email:         payload.Email,
		DisplayName:   payload.DisplayName,
		Role:          payload.Role,
		Permissions:   payload.Permissions,
		IsActive:      payload.IsActive,
		IsBlocked:     payload.IsBlocked,
		EmailVerified: payload.EmailVerified,
	}
	return payload.SessionID, ident, nil
}

// Clear removes the persisted session. Missing keys are not an error.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, sessionKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
