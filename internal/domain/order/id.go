package order

import (
	"sync"
	"time"
)

// IDGenerator issues strictly increasing order identifiers derived from the
// wall clock in milliseconds. When the clock has not advanced past the last
// issued value, the next integer is used instead.
//
// IDGenerator is safe for concurrent use; one instance is shared by every
// ledger in the process.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// NewIDGenerator creates an IDGenerator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns a new identifier for an order created at now.
func (g *IDGenerator) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe records an identifier issued earlier, e.g. by a previous process.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id > g.last {
		g.last = id
	}
}
