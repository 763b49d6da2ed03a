// Package throttle applies fixed-window request rate limits keyed by client
// address for anonymous callers and by user id for authenticated ones.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts hits per key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// RedisLimiter shares counters across API replicas.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "throttle:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	k := l.prefix + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("throttle %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, k, window).Err(); err != nil {
			return Result{}, fmt.Errorf("throttle %s: set window: %w", key, err)
		}
	}
	if int(count) <= limit {
		return Result{Allowed: true, Remaining: limit - int(count)}, nil
	}

	retry, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("throttle %s: %w", key, err)
	}
	if retry < 0 {
		// The key lost its expiry; start a fresh window instead of
		// throttling forever.
		retry = window
		if err := l.client.PExpire(ctx, k, window).Err(); err != nil {
			return Result{}, fmt.Errorf("throttle %s: set window: %w", key, err)
		}
	}
	return Result{Allowed: false, RetryAfter: retry}, nil
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process. Used when redis is disabled or
// unreachable.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, period time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(period)}
		l.windows[key] = w
		l.sweep(now)
	}

	w.count++
	if w.count > limit {
		return Result{Allowed: false, RetryAfter: w.resetAt.Sub(now)}, nil
	}
	return Result{Allowed: true, Remaining: limit - w.count}, nil
}

// sweep drops expired windows so idle keys do not accumulate.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}
