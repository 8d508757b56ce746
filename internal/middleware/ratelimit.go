package middleware

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the limit for a specific route or group.
type RateLimitConfig struct {
	Max    int                      // Requests allowed per window (also the burst)
	Window time.Duration            // Window over which Max requests refill
	KeyFn  func(c fiber.Ctx) string // Returns the key to rate limit on (IP, user, ...)
}

// bucket is one key's token bucket and the last time it was used.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per key. Buckets refill continuously at
// Max per Window, so a client that waits a fraction of the window regains a
// proportional share of requests.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  RateLimitConfig
	every   rate.Limit
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a rate limiter with the given config and starts a
// janitor that drops idle buckets.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFn == nil {
		cfg.KeyFn = KeyByIP
	}
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		every:   rate.Every(cfg.Window / time.Duration(cfg.Max)),
		stop:    make(chan struct{}),
	}
	go rl.cleanup(5 * time.Minute)
	return rl
}

func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.every, rl.config.Max)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// take consumes a token for key. It returns whether the request may pass,
// the tokens left and how long until the next token.
func (rl *RateLimiter) take(key string, now time.Time) (bool, int, time.Duration) {
	lim := rl.limiterFor(key, now)
	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	remaining := int(math.Floor(lim.TokensAt(now)))
	return true, max(remaining, 0), 0
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		now := time.Now()
		ok, remaining, wait := rl.take(rl.config.KeyFn(c), now)

		setRateLimitHeaders(c, rl.config.Max, remaining, now.Add(wait))
		if !ok {
			retryAfter := int(math.Ceil(wait.Seconds()))
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":       "RATE_LIMITED",
					"message":    fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
					"retryAfter": retryAfter,
				},
			})
		}
		return c.Next()
	}
}

// Allow checks if a request with the given key is allowed (for testing).
func (rl *RateLimiter) Allow(key string) bool {
	ok, _, _ := rl.take(key, time.Now())
	return ok
}

// Close stops the janitor goroutine.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func setRateLimitHeaders(c fiber.Ctx, limit, remaining int, resetAt time.Time) {
	c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", max(remaining, 0)))
	c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// sweep drops buckets idle for longer than a window; they would be full anyway.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.config.Window {
			delete(rl.buckets, key)
		}
	}
}

// KeyByIP returns the client IP as the rate limit key.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyByUser keys on the authenticated caller. It must run after the auth
// middleware; anonymous requests fall back to the IP.
func KeyByUser(c fiber.Ctx) string {
	if id, ok := IdentityFrom(c); ok {
		return "user:" + id.ExternalID
	}
	return KeyByIP(c)
}

// --- Pre-configured rate limiters matching the API contract ---

// NewSearchRateLimiter: 100 req/min per IP
func NewSearchRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    100,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}

// NewSubmitRateLimiter: 5 req/min per user
func NewSubmitRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    5,
		Window: time.Minute,
		KeyFn:  KeyByUser,
	})
}

// NewVoteRateLimiter: 20 req/min per user
func NewVoteRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    20,
		Window: time.Minute,
		KeyFn:  KeyByUser,
	})
}

// NewReviewRateLimiter: 10 req/min per IP
func NewReviewRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    10,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}
