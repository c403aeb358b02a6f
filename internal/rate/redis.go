package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when the Redis cooldown backend cannot be
// reached. The in-process backend never returns it.
var ErrUnavailable = errors.New("cooldown backend unavailable")

// RedisLimiter keeps cooldown state in Redis so multiple instances share one
// throttle. Each record is a key whose TTL is the remaining cooldown.
type RedisLimiter struct {
	client redis.UniversalClient
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a Redis-backed limiter. A window of zero or less
// disables throttling.
func NewRedisLimiter(client redis.UniversalClient, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		window: window,
		prefix: "av:cooldown:",
	}
}

// Check returns the longest remaining cooldown across the username and
// origin records.
func (l *RedisLimiter) Check(ctx context.Context, username, ip string) (time.Duration, error) {
	if l.window <= 0 {
		return 0, nil
	}

	remaining, err := l.ttl(ctx, l.prefix+userKey(username))
	if err != nil {
		return 0, err
	}
	if ip != "" {
		r, err := l.ttl(ctx, l.prefix+ipKey(ip))
		if err != nil {
			return 0, err
		}
		if r > remaining {
			remaining = r
		}
	}
	return remaining, nil
}

// Record stores a failed attempt; the key's TTL is the cooldown window.
func (l *RedisLimiter) Record(ctx context.Context, username, ip string) error {
	if l.window <= 0 {
		return nil
	}

	if err := l.client.Set(ctx, l.prefix+userKey(username), "1", l.window).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ip != "" {
		if err := l.client.Set(ctx, l.prefix+ipKey(ip), "1", l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// Reset clears cooldown state for both records.
func (l *RedisLimiter) Reset(ctx context.Context, username, ip string) error {
	keys := []string{l.prefix + userKey(username)}
	if ip != "" {
		keys = append(keys, l.prefix+ipKey(ip))
	}
	if err := l.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (l *RedisLimiter) ttl(ctx context.Context, key string) (time.Duration, error) {
	d, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// Negative TTL means the key is missing or has no expiry.
	if d <= 0 {
		return 0, nil
	}
	return d, nil
}
