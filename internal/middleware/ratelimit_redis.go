// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore backed by Redis, so limits
// hold across server instances. It uses a fixed window counter keyed per
// client: INCR plus an EXPIRE set on the first hit of each window.
//
// The store fails open: if Redis is unreachable the request is allowed and
// the error counted, since dropping traffic on a rate limiter outage is worse
// than briefly exceeding a quota.
type RedisRateLimitStore struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
// A nil metrics disables the fail-open error counter.
func NewRedisRateLimitStore(client *redis.Client, logger *slog.Logger, metrics *Metrics) *RedisRateLimitStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRateLimitStore{
		client:  client,
		logger:  logger,
		metrics: metrics,
	}
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	redisKey := "ratelimit:" + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		s.failOpen(ctx, err)
		return true, 0
	}

	if count == 1 {
		// First hit of the window: start the clock
		if err := s.client.Expire(ctx, redisKey, config.WindowDuration).Err(); err != nil {
			s.failOpen(ctx, err)
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

func (s *RedisRateLimitStore) failOpen(ctx context.Context, err error) {
	s.logger.WarnContext(ctx, "rate limit store unavailable, allowing request", "error", err)
	if s.metrics != nil {
		s.metrics.IncRateLimitRedisErrors()
	}
}
