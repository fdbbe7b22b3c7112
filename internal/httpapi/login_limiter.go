package httpapi

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginLimiterPrefix = "rl:login:"

// LoginLimiter throttles login attempts per email (or client IP when the
// request carries no email) using a Redis counter with a one-minute window.
type LoginLimiter struct {
	client *redis.Client
	max    int
}

// NewLoginLimiter builds the limiter. A nil client disables throttling.
func NewLoginLimiter(client *redis.Client, perMinute int) *LoginLimiter {
	if client == nil {
		return nil
	}
	if perMinute <= 0 {
		perMinute = 5
	}
	return &LoginLimiter{client: client, max: perMinute}
}

// Allow counts an attempt and reports whether it is within the window.
// Errors are returned to the caller, which fails open: a cache outage must
// not become a login outage.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	cnt, err := l.client.Incr(ctx, loginLimiterPrefix+key).Result()
	if err != nil {
		return true, err
	}
	if cnt == 1 {
		// Without the expiry the counter would throttle the key forever.
		if err := l.client.Expire(ctx, loginLimiterPrefix+key, time.Minute).Err(); err != nil {
			return true, err
		}
	}
	return cnt <= int64(l.max), nil
}
