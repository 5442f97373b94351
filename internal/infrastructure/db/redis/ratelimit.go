package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLoginLimit  = 10
	defaultLoginWindow = time.Minute
)

// LoginLimiter throttles login attempts with a fixed window counter in Redis.
// Key format: login:<email>:<client_ip>
//
// The limiter fails open: when Redis is unreachable the attempt is allowed
// and the error only logged, so an outage never locks users out.
type LoginLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	log    zerolog.Logger
}

// NewLoginLimiter creates a LoginLimiter wrapping the given Redis client.
// Non-positive limit or window fall back to defaults.
func NewLoginLimiter(client *redis.Client, limit int, window time.Duration, log zerolog.Logger) *LoginLimiter {
	if limit <= 0 {
		limit = defaultLoginLimit
	}
	if window <= 0 {
		window = defaultLoginWindow
	}
	return &LoginLimiter{client: client, limit: int64(limit), window: window, log: log}
}

// Allow records one attempt for key and reports whether it is within the
// window limit.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "login:" + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		l.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		return true, nil
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			l.log.Warn().Err(err).Msg("login limiter expire failed")
		}
	}
	return n <= l.limit, nil
}
