package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore backed by Redis, for
// deployments with more than one API replica. It uses a fixed window counter
// keyed per client, with the window enforced by key expiry.
type RedisRateLimitStore struct {
	client *redis.Client
}

// NewRedisRateLimitStore creates a rate limit store backed by the given client.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
//
// Fails open: if Redis is unreachable the request is allowed, so a cache
// outage degrades to unlimited traffic rather than a full API outage.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	redisKey := "ratelimit:" + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, 0
	}

	if count == 1 {
		// First request in the window; start the clock.
		if err := s.client.Expire(ctx, redisKey, config.WindowDuration).Err(); err != nil {
			return true, 0
		}
	}

	if count <= int64(config.RequestsPerWindow) {
		return true, 0
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		return false, 1
	}
	retryAfter := int(ttl / time.Second)
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, retryAfter
}
