package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/config"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/utils"
)

// RateLimiter throttles generation requests per user. When Redis is
// configured the window is shared across instances; otherwise each
// process keeps its own token bucket per user.
type RateLimiter struct {
	perMinute int
	rdb       *redis.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewRateLimiter(cfg *config.AppConfig) *RateLimiter {
	rl := &RateLimiter{
		perMinute: cfg.RateLimit.RequestsPerMinute,
		limiters:  make(map[string]*rate.Limiter),
	}

	if rl.perMinute > 0 && cfg.RateLimit.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			utils.GetLogger().Warn("redis unreachable, rate limiting falls back to in-process",
				"addr", cfg.RateLimit.RedisAddr, "error", err)
		} else {
			rl.rdb = rdb
		}
	}
	return rl
}

// Allow reports whether userID may start a generation now, and how many
// requests remain in the current window. A zero per-minute limit
// disables limiting entirely.
func (r *RateLimiter) Allow(ctx context.Context, userID string) (bool, int, error) {
	if r.perMinute <= 0 {
		return true, -1, nil
	}
	if r.rdb != nil {
		return r.allowRedis(ctx, userID)
	}
	return r.allowLocal(userID)
}

// allowRedis counts requests in a fixed one-minute window keyed by
// user and wall-clock minute.
func (r *RateLimiter) allowRedis(ctx context.Context, userID string) (bool, int, error) {
	key := fmt.Sprintf("ratelimit:generate:%s:%d", userID, time.Now().Unix()/60)

	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		// Redis down mid-flight: degrade to local rather than block users.
		utils.GetLogger().Warn("redis rate limit check failed", "error", err)
		return r.allowLocal(userID)
	}
	if n == 1 {
		r.rdb.Expire(ctx, key, 2*time.Minute)
	}

	remaining := r.perMinute - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return int(n) <= r.perMinute, remaining, nil
}

func (r *RateLimiter) allowLocal(userID string) (bool, int, error) {
	r.mu.Lock()
	lim, ok := r.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(r.perMinute)/60.0), r.perMinute)
		r.limiters[userID] = lim
	}
	r.mu.Unlock()

	if !lim.Allow() {
		return false, 0, nil
	}
	return true, int(lim.Tokens()), nil
}
