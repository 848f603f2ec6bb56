package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares counters between instances through Redis.
type RedisLimiter struct {
	client    redis.UniversalClient
	keyPrefix string
	limit     int
	window    time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, keyPrefix string, limit int, windowLen time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    windowLen,
	}
}

// Allow increments the key's counter. The first hit in a window sets the
// expiry; PTTL gives the reset time.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.keyPrefix + "ratelimit:" + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := l.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis limiter: %w", err)
	}

	count := int(incr.Val())
	ttl := pttl.Val()

	// A key without expiry is either new or lost its PEXPIRE.
	if count == 1 || ttl < 0 {
		if err := l.client.PExpire(ctx, k, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis limiter expire: %w", err)
		}
		ttl = l.window
	}

	return decide(count, l.limit, time.Now().Add(ttl)), nil
}

// Close is a no-op; the client belongs to the caller.
func (l *RedisLimiter) Close() error {
	return nil
}

var _ Limiter = (*RedisLimiter)(nil)
