// Package revocation records access tokens revoked before their expiry.
package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "revoked:jti:"

// RedisStore keeps revoked token ids in Redis until the token would have
// expired anyway. With a nil client every call is a no-op.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: defaultPrefix, now: time.Now}
}

func (s *RedisStore) Enabled() bool { return s != nil && s.client != nil }

// Revoke marks jti revoked until the given time. Nothing is stored when that
// time already passed.
func (s *RedisStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	if !s.Enabled() || jti == "" {
		return nil
	}
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+jti, "1", ttl).Err()
}

// IsRevoked returns true when jti is present in the store.
func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !s.Enabled() || jti == "" {
		return false, nil
	}
	exists, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
