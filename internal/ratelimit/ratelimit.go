package ratelimit

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"gamebot/internal/logger"
	"gamebot/internal/metrics"
)

// Connect returns a Redis client for addr, or nil when addr is empty or the
// server does not answer a ping. A nil client makes every Limiter fail open.
func Connect(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", addr, "error", err)
		client.Close()
		return nil
	}
	return client
}

// Limiter is a fixed-window counter kept in Redis under
// rl:<scope>:<window_seconds>:<identifier>.
type Limiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	scope  string
}

func New(client *redis.Client, max int, window time.Duration, scope string) *Limiter {
	return &Limiter{client: client, max: int64(max), window: window, scope: scope}
}

// Allow reports whether the user may send another event in the current window.
func (l *Limiter) Allow(ctx context.Context, userID int64) bool {
	ok, _ := l.Hit(ctx, strconv.FormatInt(userID, 10))
	return ok
}

// Hit counts one request for ident. It returns whether the request is within
// the limit and how many remain. Redis errors allow the request.
func (l *Limiter) Hit(ctx context.Context, ident string) (bool, int64) {
	if l == nil || l.client == nil {
		return true, l.limit()
	}

	key := "rl:" + l.scope + ":" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + ident
	val, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		logger.Warn("rate limiter redis error", "scope", l.scope, "error", err)
		return true, l.max
	}
	if val == 1 {
		l.client.Expire(ctx, key, l.window)
	}

	metrics.RLRequests.WithLabelValues(l.scope).Inc()
	if val > l.max {
		metrics.RLBlocked.WithLabelValues(l.scope).Inc()
		return false, 0
	}
	return true, l.max - val
}

func (l *Limiter) limit() int64 {
	if l == nil {
		return 0
	}
	return l.max
}

// Window returns the length of one counting window.
func (l *Limiter) Window() time.Duration {
	if l == nil {
		return 0
	}
	return l.window
}

// Max returns the number of requests allowed per window.
func (l *Limiter) Max() int { return int(l.limit()) }
