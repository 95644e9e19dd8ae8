package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window limiter.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	// TrustForwarded keys clients by X-Forwarded-For and X-Real-IP. Enable
	// only behind a proxy that overwrites those headers.
	TrustForwarded bool
	// KeyFunc identifies the client. Defaults to RemoteIP, or ClientIP when
	// TrustForwarded is set.
	KeyFunc func(*http.Request) string
}

// window counts requests in the current fixed window and remembers the
// previous one; the estimate weights the previous count by its overlap with
// the sliding window ending now.
type window struct {
	start time.Time
	curr  int
	prev  int
}

// Limiter is a sliding window rate limiter keyed by client.
type Limiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	windows map[string]*window
}

// NewLimiter creates a Limiter. A non-positive Max disables limiting.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = RemoteIP
		if cfg.TrustForwarded {
			cfg.KeyFunc = ClientIP
		}
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{cfg: cfg, windows: make(map[string]*window)}
}

// Allow records a request from key at now and reports whether it is within
// the limit, how many requests remain and when the current window ends.
func (l *Limiter) Allow(key string, now time.Time) (ok bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := now.Truncate(l.cfg.Window)
	w, found := l.windows[key]
	switch {
	case !found:
		w = &window{start: start}
		l.windows[key] = w
	case start.Sub(w.start) >= 2*l.cfg.Window:
		*w = window{start: start}
	case start.After(w.start):
		*w = window{start: start, prev: w.curr}
	}

	reset = w.start.Add(l.cfg.Window)
	overlap := 1 - float64(now.Sub(w.start))/float64(l.cfg.Window)
	estimate := float64(w.prev)*overlap + float64(w.curr)
	if estimate >= float64(l.cfg.Max) {
		return false, 0, reset
	}
	w.curr++
	return true, max(int(float64(l.cfg.Max)-estimate-1), 0), reset
}

// Prune forgets clients idle for two windows.
func (l *Limiter) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.start) >= 2*l.cfg.Window {
			delete(l.windows, key)
		}
	}
}

// Run prunes periodically until ctx is done.
func (l *Limiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(2 * l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			l.Prune(now)
		}
	}
}

// Middleware rejects requests over the limit with 429 and reports the limit
// state in X-RateLimit-* headers.
func (l *Limiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if l.cfg.Max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			ok, remaining, reset := l.Allow(l.cfg.KeyFunc(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(reset.Sub(now).Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return RemoteIP(r)
}

// RemoteIP returns the host of the connection peer.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
