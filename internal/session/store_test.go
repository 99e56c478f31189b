package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/session"
)

func newRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewRedisStore(client, time.Hour), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	ident := testIdentity().WithRole(rbac.RoleAdmin)
	require.NoError(t, store.Persist(ctx, "sid-1", ident))

	sid, loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sid)
	require.NotNil(t, loaded)
	assert.Equal(t, ident.UID, loaded.UID)
	assert.Equal(t, rbac.RoleAdmin, loaded.Role)
	assert.ElementsMatch(t, ident.Permissions, loaded.Permissions)
	assert.True(t, loaded.IsActive)
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store, _ := newRedisStore(t)

	sid, loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sid)
	assert.Nil(t, loaded)
}

func TestRedisStoreClear(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Persist(ctx, "sid-1", testIdentity()))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Persist(ctx, "sid-1", testIdentity()))
	mr.FastForward(2 * time.Hour)

	_, loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreRejectsNilIdentity(t *testing.T) {
	store, _ := newRedisStore(t)
	assert.Error(t, store.Persist(context.Background(), "sid-1", nil))
}
