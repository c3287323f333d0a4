package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	// Rate is the sustained number of requests per second per key.
	Rate float64

	// Burst is the number of requests allowed at once.
	Burst int

	// CleanupInterval is how often idle limiters are dropped.
	CleanupInterval time.Duration

	// IdleTimeout is how long a key may go unused before it is dropped.
	IdleTimeout time.Duration
}

// DefaultRateLimitConfig allows 10 report generations per minute per key.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Rate:            10.0 / 60.0,
		Burst:           5,
		CleanupInterval: time.Hour,
		IdleTimeout:     time.Hour,
	}
}

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c echo.Context) string

// ByIP counts requests per client address.
func ByIP(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// ByProfile counts requests per signed-in profile, falling back to the
// client address for anonymous requests.
func ByProfile(c echo.Context) string {
	if p := fleetcheck.ProfileFromContext(c.Request().Context()); p != nil {
		return "profile:" + p.ID.String()
	}
	return ByIP(c)
}

// RateLimiter is a token bucket limiter keyed per client.
type RateLimiter struct {
	limiters sync.Map // key -> *limiterEntry
	logger   *slog.Logger
	config   RateLimitConfig
	key      KeyFunc
	ctx      context.Context
	cancel   context.CancelFunc
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64 // Unix timestamp in seconds
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine.
// Call Shutdown to stop it.
func NewRateLimiter(logger *slog.Logger, config RateLimitConfig, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ByIP
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl := &RateLimiter{
		logger: logger,
		config: config,
		key:    key,
		ctx:    ctx,
		cancel: cancel,
	}

	go rl.cleanupOldLimiters()

	return rl
}

// Middleware rejects requests over the limit with ERATELIMIT.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rl.key(c)
			limit := fmt.Sprintf("%d", rl.config.Burst)

			if !rl.getLimiter(key).Allow() {
				rl.logger.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("path", c.Path()),
					slog.String("method", c.Request().Method))

				retry := time.Second
				if rl.config.Rate > 0 {
					retry = max(retry, time.Duration(float64(time.Second)/rl.config.Rate))
				}
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%.0f", retry.Seconds()))
				c.Response().Header().Set("X-RateLimit-Limit", limit)
				c.Response().Header().Set("X-RateLimit-Remaining", "0")

				return fleetcheck.Errorf(fleetcheck.ERATELIMIT, "Too many report requests, try again shortly")
			}

			c.Response().Header().Set("X-RateLimit-Limit", limit)
			return next(c)
		}
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now().Unix()
	if entry, ok := rl.limiters.Load(key); ok {
		e := entry.(*limiterEntry)
		e.lastAccess.Store(now)
		return e.limiter
	}

	entry := &limiterEntry{
		limiter: rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst),
	}
	entry.lastAccess.Store(now)
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

func (rl *RateLimiter) cleanupOldLimiters() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-rl.ctx.Done():
			rl.logger.Debug("rate limiter cleanup goroutine stopping")
			return
		}
	}
}

// sweep drops limiters idle since before now minus IdleTimeout.
func (rl *RateLimiter) sweep(now time.Time) int {
	cutoff := now.Add(-rl.config.IdleTimeout).Unix()
	var removed int
	rl.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastAccess.Load() < cutoff {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		rl.logger.Info("cleaned up old rate limiters", slog.Int("removed", removed))
	}
	return removed
}

// Shutdown stops the cleanup goroutine.
func (rl *RateLimiter) Shutdown() {
	rl.cancel()
}
