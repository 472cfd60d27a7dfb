package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore keeps fixed-window request counters in Redis.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
	now    func() time.Time
}

// NewRateLimitStore creates a new Redis-backed rate limit store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: keyPrefix + "ratelimit:",
		now:    time.Now,
	}
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RetryAfter is the time left until the current window closes.
func (r *RateLimitResult) RetryAfter(now time.Time) time.Duration {
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Allow counts one hit against key and reports whether it fits in limit for
// the current window. Windows are aligned to the Unix epoch.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	if window < time.Second {
		window = time.Second
	}
	now := s.now()
	windowSecs := int64(window / time.Second)
	windowID := now.Unix() / windowSecs
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis rate limit incr: %w", err)
	}
	count := incr.Val()

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Unix((windowID+1)*windowSecs, 0),
	}, nil
}
