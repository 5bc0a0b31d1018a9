// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"modelgate/platform/shared/logger"
)

// RateLimiter enforces a per-user sliding-window request budget backed by
// Redis. It fails open: a Redis error admits the request rather than taking
// the gateway down with the cache.
type RateLimiter struct {
	client         *redis.Client
	limitPerMinute int
	log            *logger.Logger
}

// NewRateLimiter connects to Redis and returns a limiter. An empty redisURL
// or a zero limit disables limiting (Allow always returns true).
func NewRateLimiter(redisURL string, limitPerMinute int, log *logger.Logger) (*RateLimiter, error) {
	if log == nil {
		log = logger.New("ratelimit")
	}
	limiter := &RateLimiter{limitPerMinute: limitPerMinute, log: log}

	if redisURL == "" || limitPerMinute == 0 {
		return limiter, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	limiter.client = client
	return limiter, nil
}

// NewRateLimiterWithClient wraps an existing Redis client (used in tests)
func NewRateLimiterWithClient(client *redis.Client, limitPerMinute int, log *logger.Logger) *RateLimiter {
	if log == nil {
		log = logger.New("ratelimit")
	}
	return &RateLimiter{client: client, limitPerMinute: limitPerMinute, log: log}
}

// Allow reports whether the user is within budget and records the request.
// The window is the trailing minute, tracked as a Redis sorted set of
// nanosecond timestamps.
func (l *RateLimiter) Allow(ctx context.Context, userID string) bool {
	if l.client == nil || l.limitPerMinute == 0 {
		return true
	}

	now := time.Now()
	key := "ratelimit:" + userID

	pipe := l.client.Pipeline()
	minScore := now.Add(-time.Minute).UnixNano()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", minScore))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, key, 2*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open
		l.log.Warn(userID, "", "Rate limit check failed, admitting request", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}

	return countCmd.Val() < int64(l.limitPerMinute)
}

// Close releases the Redis connection
func (l *RateLimiter) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
