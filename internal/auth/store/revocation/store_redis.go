package revocation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lobby:revoked:"

// RedisStore is the shared denylist for multi-instance deployments. The
// value is the activation time in unix milliseconds; callers size the TTL to
// cover the grace delay plus the remaining session lifetime.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Revoke(ctx context.Context, sessionID string, effectiveAt time.Time, ttl time.Duration) error {
	key := keyPrefix + sessionID
	value := strconv.FormatInt(effectiveAt.UnixMilli(), 10)
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, sessionID string, now time.Time) (bool, error) {
	value, err := s.client.Get(ctx, keyPrefix+sessionID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation for session %s: %w", sessionID, err)
	}
	effectiveMilli, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// Unparsable entry: fail closed, the session is revoked.
		return true, nil
	}
	return !now.Before(time.UnixMilli(effectiveMilli)), nil
}
