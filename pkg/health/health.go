// Package health serves liveness and readiness probes.
//
// Checks run periodically in the background; HTTP probes report the last
// known state. A check turns unhealthy after three consecutive failures and
// healthy again after one success.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Kind selects the probe a check contributes to.
type Kind int

// Probe kinds.
const (
	Liveness Kind = iota
	Readiness
)

const failureThreshold = 3

type check struct {
	name    string
	kind    Kind
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[string]
	fails   int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.fn(ctx); err != nil {
		msg := err.Error()
		c.lastErr.Store(&msg)
		c.fails++
		if c.fails >= failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.lastErr.Store(nil)
	c.fails = 0
	c.healthy.Store(true)
}

func (c *check) failure() (string, bool) {
	if c.healthy.Load() {
		return "", false
	}
	if msg := c.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "unhealthy", true
}

// Health holds the registered checks and the manual readiness flag. The
// service starts not ready.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
}

// New creates a Health.
func New() *Health {
	return &Health{}
}

// Add registers a check. Checks must be added before Run.
func (h *Health) Add(kind Kind, name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, kind: kind, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// Run executes every check immediately and then at interval until ctx is
// done.
func (h *Health) Run(ctx context.Context, interval time.Duration) error {
	h.mu.RLock()
	checks := slices.Clone(h.checks)
	h.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range checks {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				c.run(ctx)
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}
	return g.Wait()
}

// SetReady sets the manual readiness flag.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(Readiness)) == 0
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(Liveness))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(Readiness)
	if !h.ready.Load() {
		failures = append(failures, [2]string{"_readiness", "service is not ready"})
	}
	writeStatus(w, failures)
}

func (h *Health) failures(kind Kind) [][2]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out [][2]string
	for _, c := range h.checks {
		if c.kind != kind {
			continue
		}
		if msg, failed := c.failure(); failed {
			out = append(out, [2]string{c.name, msg})
		}
	}
	return out
}

func writeStatus(w http.ResponseWriter, failures [][2]string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	status := http.StatusOK
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		for _, f := range failures {
			e.FieldStart(f[0])
			e.Str(f[1])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
