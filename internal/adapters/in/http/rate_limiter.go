package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"orderflow/internal/generated/servers"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTimeout = 3 * time.Minute
	visitorSweepEvery  = time.Minute
)

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	r        rate.Limit
	b        int
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows r requests per second per IP with bursts of b.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		r:        r,
		b:        b,
		now:      time.Now,
	}
}

// Limiter returns the bucket of ip, creating it on first use.
func (l *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.r, l.b)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Forget drops buckets idle for longer than visitorIdleTimeout and returns
// how many were removed.
func (l *IPRateLimiter) Forget() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for ip, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > visitorIdleTimeout {
			delete(l.visitors, ip)
			removed++
		}
	}
	return removed
}

// Run forgets idle visitors every minute until ctx is done.
func (l *IPRateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(visitorSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Forget()
		}
	}
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(l *IPRateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Limiter(c.RealIP()).Allow() {
				return c.JSON(http.StatusTooManyRequests, servers.Error{
					Code:    http.StatusTooManyRequests,
					Message: "Too many requests",
				})
			}
			return next(c)
		}
	}
}
