package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/marketbarrio/internal/domain/order"
	"github.com/xenking/marketbarrio/internal/domain/pricing"
	"github.com/xenking/marketbarrio/internal/domain/product"
	"github.com/xenking/marketbarrio/internal/storage"
)

// ErrInvalidID is returned for session identifiers that are not UUIDs.
var ErrInvalidID = errors.New("invalid session id")

// DefaultTTL is how long an idle session stays in memory.
const DefaultTTL = 30 * time.Minute

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Catalog *product.Catalog
	Store   storage.Store
	Policy  pricing.Policy
	// TTL is the idle time after which a session is dropped from memory.
	// Its state is already persisted and is reloaded on next use.
	TTL   time.Duration
	Meter metric.Meter
}

func (o *ManagerOptions) setDefaults() {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Policy == (pricing.Policy{}) {
		o.Policy = pricing.DefaultPolicy
	}
	if o.Meter == nil {
		o.Meter = noop.NewMeterProvider().Meter("")
	}
}

// Manager keeps the live sessions of the process.
type Manager struct {
	cfg Config
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	loads    singleflight.Group

	placed metric.Int64Counter
}

// NewManager creates a Manager.
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	opts.setDefaults()

	placed, err := opts.Meter.Int64Counter("marketbarrio.orders.placed",
		metric.WithDescription("Number of orders placed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}

	m := &Manager{
		ttl:      opts.TTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
		placed:   placed,
	}
	m.cfg = Config{
		Catalog: opts.Catalog,
		Store:   opts.Store,
		Policy:  opts.Policy,
		IDs:     order.NewIDGenerator(),
		OnPlace: m.onPlace,
	}
	return m, nil
}

// Create starts a new session with a random identifier.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	return m.Get(ctx, uuid.NewString())
}

// Get returns the session id, loading it from the store on first use.
// Concurrent loads of the same session are merged. The session is held in
// memory until the caller hands it back with Release.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	id = parsed.String()

	for {
		if s, ok := m.acquire(id); ok {
			return s, nil
		}
		m.loads.Do(id, func() (any, error) {
			if m.loaded(id) {
				return nil, nil
			}
			// The load outlives the request that triggered it.
			s := Load(context.WithoutCancel(ctx), id, m.cfg)

			m.mu.Lock()
			m.sessions[id] = s
			m.mu.Unlock()

			zctx.From(ctx).Debug("Session loaded", zap.String("session", id))
			return nil, nil
		})
	}
}

// Release marks the end of a use of a session returned by Get or Create.
func (m *Manager) Release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.refs--
	s.touch(m.now())
}

func (m *Manager) acquire(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if ok {
		s.refs++
		s.touch(m.now())
	}
	return s, ok
}

func (m *Manager) loaded(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[id]
	return ok
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// Evict drops sessions idle for longer than the TTL and returns how many
// were dropped. Sessions not yet released are kept.
func (m *Manager) Evict() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if s.refs > 0 || s.idleSince(now) <= m.ttl {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	return evicted
}

// Run evicts idle sessions periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	interval := max(m.ttl/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lg := zctx.From(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Evict(); n > 0 {
				lg.Debug("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) onPlace(ctx context.Context, o order.Order) {
	m.placed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", o.PaymentMethod),
	))
}
