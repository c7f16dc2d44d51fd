package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long an unused client limiter is kept.
	IdleTTL time.Duration
	Skipper middleware.Skipper
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		IdleTTL:           10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterRegistry holds one token bucket per client IP.
type limiterRegistry struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	cfg       RateLimitConfig
	now       func() time.Time
	lastSweep time.Time
}

func newLimiterRegistry(cfg RateLimitConfig) *limiterRegistry {
	return &limiterRegistry{
		limiters: make(map[string]*clientLimiter),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (r *limiterRegistry) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)
	cl, ok := r.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(r.cfg.RequestsPerSecond), r.cfg.BurstSize)}
		r.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// sweep drops idle limiters at most once per IdleTTL. Caller holds mu.
func (r *limiterRegistry) sweep(now time.Time) {
	if r.cfg.IdleTTL <= 0 || now.Sub(r.lastSweep) < r.cfg.IdleTTL {
		return
	}
	r.lastSweep = now
	for k, cl := range r.limiters {
		if now.Sub(cl.lastSeen) > r.cfg.IdleTTL {
			delete(r.limiters, k)
		}
	}
}

func (r *limiterRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// RateLimit limits each client IP to a token bucket. Rejected requests get
// 429 with Retry-After.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(newLimiterRegistry(cfg))
}

func rateLimit(reg *limiterRegistry) echo.MiddlewareFunc {
	skipper := reg.cfg.Skipper
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	limit := strconv.FormatFloat(reg.cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			lim := reg.get(c.RealIP())
			res := lim.ReserveN(reg.now(), 1)
			if !res.OK() {
				h.Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			if delay := res.DelayFrom(reg.now()); delay > 0 {
				res.CancelAt(reg.now())
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
