// Package middleware holds the http.Handler wrappers shared by the router:
// per-client rate limiting, request IDs and access logging.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

// Default limiter values, matching the list endpoint's policy.
const (
	DefaultLimit           = 5
	DefaultWindow          = time.Minute
	DefaultCleanupInterval = time.Minute
)

// window counts the requests one client made since start.
type window struct {
	start time.Time
	count int
}

// FixedWindowLimiter allows at most limit requests per client within a
// window that opens at that client's first request. Once the window has
// elapsed the next request opens a fresh one.
//
// Unlike a token bucket there is no gradual refill: a client that spends
// its budget early waits for the whole window to close.
type FixedWindowLimiter struct {
	limit   int
	period  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	windows map[string]*window

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewFixedWindowLimiter creates a limiter and starts a goroutine that
// drops expired windows. Call Stop when done with it.
func NewFixedWindowLimiter(limit int, period time.Duration) *FixedWindowLimiter {
	return newFixedWindowLimiter(limit, period, time.Now, DefaultCleanupInterval)
}

func newFixedWindowLimiter(limit int, period time.Duration, now func() time.Time, cleanupInterval time.Duration) *FixedWindowLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if period <= 0 {
		period = DefaultWindow
	}

	l := &FixedWindowLimiter{
		limit:     limit,
		period:    period,
		now:       now,
		windows:   make(map[string]*window),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}

	go l.cleanup(cleanupInterval)

	return l
}

// Limit returns the number of requests allowed per window.
func (l *FixedWindowLimiter) Limit() int { return l.limit }

// Period returns the window length.
func (l *FixedWindowLimiter) Period() time.Duration { return l.period }

// Allow records a request from key.
// It returns whether the request is allowed, how many requests remain in
// the current window, and how many seconds until the window resets.
func (l *FixedWindowLimiter) Allow(key string) (allowed bool, remaining int, resetSec int64) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.start.Add(l.period)) {
		w = &window{start: now}
		l.windows[key] = w
	}

	reset := w.start.Add(l.period).Sub(now)
	resetSec = int64((reset + time.Second - 1) / time.Second)

	if w.count >= l.limit {
		return false, 0, resetSec
	}
	w.count++
	return true, l.limit - w.count, resetSec
}

// Stop stops the cleanup goroutine.
func (l *FixedWindowLimiter) Stop() {
	close(l.stopCh)
	<-l.stoppedCh
}

func (l *FixedWindowLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(l.stoppedCh)

	for {
		select {
		case <-ticker.C:
			l.removeExpired()
		case <-l.stopCh:
			return
		}
	}
}

func (l *FixedWindowLimiter) removeExpired() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if !now.Before(w.start.Add(l.period)) {
			delete(l.windows, key)
		}
	}
}

// ClientIP is the limiter key: the host part of the peer address.
// Proxy headers are ignored.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitOption configures RateLimit.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	onReject func(r *http.Request)
}

// WithRejectHook registers fn to be called for every rejected request.
func WithRejectHook(fn func(r *http.Request)) RateLimitOption {
	return func(c *rateLimitConfig) {
		c.onReject = fn
	}
}

// RateLimit returns middleware that answers 429 once a client has used up
// its window. If limiter is nil, requests pass through.
func RateLimit(limiter *FixedWindowLimiter, opts ...RateLimitOption) func(http.Handler) http.Handler {
	cfg := &rateLimitConfig{}
	for _, o := range opts {
		o(cfg)
	}

	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		detail := fmt.Sprintf("Rate limit exceeded: %d per %s", limiter.Limit(), describePeriod(limiter.Period()))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, reset := limiter.Allow(ClientIP(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.onReject != nil {
				cfg.onReject(r)
			}
			w.Header().Set("Retry-After", strconv.FormatInt(reset, 10))
			response.WriteError(w, http.StatusTooManyRequests, detail)
		})
	}
}

// describePeriod renders a window as "1 minute", "30 second", "2 hour".
func describePeriod(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hour", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minute", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%d second", d/time.Second)
	default:
		return d.String()
	}
}
