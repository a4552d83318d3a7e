// Package events defines the observability events emitted by the search
// aggregation engine and the sinks that consume them. The engine never
// depends on a live telemetry backend: sinks are injected, and the engine
// only writes to the Sink interface.
package events

import (
	"sync"
	"time"

	"github.com/mealdex/mealdex/core/food"
)

// =============================================================================
// Event Types
// =============================================================================

// SearchCompleted is emitted once per settled aggregation (not per cache hit
// or coalesced joiner).
type SearchCompleted struct {
	// SearchID uniquely identifies one aggregation round-trip.
	SearchID string

	// Query is the normalized query string.
	Query string

	// ResultCount is the number of ranked results returned.
	ResultCount int

	// Elapsed is the wall-clock duration of the aggregation.
	Elapsed time.Duration

	// Sources lists the providers that contributed candidates.
	Sources []food.Source

	// Degraded is true when results came from the similar-query fallback.
	Degraded bool
}

// BudgetExceeded is emitted when an operation overran its wall-clock budget.
type BudgetExceeded struct {
	// Operation names the overrunning stage ("search", "adapter:fooddata").
	Operation string

	// Elapsed is the actual duration.
	Elapsed time.Duration

	// Budget is the duration the operation was allowed.
	Budget time.Duration
}

// =============================================================================
// Sink
// =============================================================================

// Sink consumes engine events. Implementations must be safe for concurrent
// use and must not block: the engine calls sinks inline on the search path.
type Sink interface {
	OnSearchCompleted(e SearchCompleted)
	OnBudgetExceeded(e BudgetExceeded)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) OnSearchCompleted(SearchCompleted) {}
func (NopSink) OnBudgetExceeded(BudgetExceeded)   {}

// =============================================================================
// MultiSink
// =============================================================================

// MultiSink fans events out to a set of sinks. Sinks may be added after
// construction; delivery order follows registration order.
type MultiSink struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewMultiSink creates a MultiSink over the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add registers another sink.
func (m *MultiSink) Add(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// OnSearchCompleted delivers the event to every registered sink.
func (m *MultiSink) OnSearchCompleted(e SearchCompleted) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sinks {
		s.OnSearchCompleted(e)
	}
}

// OnBudgetExceeded delivers the event to every registered sink.
func (m *MultiSink) OnBudgetExceeded(e BudgetExceeded) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sinks {
		s.OnBudgetExceeded(e)
	}
}
