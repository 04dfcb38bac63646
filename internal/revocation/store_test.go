package revocation

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRevoke_IsRevoked(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(2*time.Second)))
	require.True(t, m.Exists("revoked:jti:jti-1"))

	ok, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, ok)

	// advance past TTL
	m.FastForward(3 * time.Second)

	ok, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRevoke_AlreadyExpiredIsNotStored(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	require.NoError(t, store.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	require.False(t, m.Exists("revoked:jti:old"))
}

func TestStore_NoClient_Noop(t *testing.T) {
	store := NewRedisStore(nil)
	ctx := context.Background()
	require.False(t, store.Enabled())
	require.NoError(t, store.Revoke(ctx, "jti", time.Now().Add(time.Minute)))
	ok, err := store.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_RedisDownIsError(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1}))
	m.Close()

	_, err = store.IsRevoked(context.Background(), "jti")
	require.Error(t, err)
}
