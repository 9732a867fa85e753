package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/profile-service/internal/application/service"
)

const rateLimitKeyPrefix = "ratelimit:profiles"

type redisRateLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisRateLimiter counts requests per key in fixed windows of the given
// length.
func NewRedisRateLimiter(rdb redis.Cmdable, limit int, window time.Duration) service.RateLimiter {
	return &redisRateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (service.RateLimitDecision, error) {
	windowStart := l.now().Truncate(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", rateLimitKeyPrefix, key, windowStart.Unix())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return service.RateLimitDecision{}, fmt.Errorf("rate limit pipeline failed: %w", err)
	}

	count := int(incr.Val())
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return service.RateLimitDecision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   windowStart.Add(l.window),
	}, nil
}
