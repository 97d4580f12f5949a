package routing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/conduit/pkg/providers"
)

// Error kinds reported in Stats.ErrorsByKind.
const (
	ErrorKindModelRequired = "model_required"
	ErrorKindNoProvider    = "no_provider_for_model"
	ErrorKindNoAvailable   = "no_available_providers"
	ErrorKindNoIntegration = "no_integration"
	ErrorKindCanceled      = "canceled"
	ErrorKindHandler       = "handler"
)

// Stats is a point-in-time snapshot of router-wide counters.
type Stats struct {
	// TotalExecutions is the number of Execute calls
	TotalExecutions int64 `json:"total_executions"`

	// SelectionsPerProvider counts how often each provider was selected
	SelectionsPerProvider map[string]int64 `json:"selections_per_provider"`

	// PreferredHits counts executions served by a preferred provider
	PreferredHits int64 `json:"preferred_hits"`

	// PreferredFallbacks counts executions that asked for preferred providers
	// but were served by another candidate
	PreferredFallbacks int64 `json:"preferred_fallbacks"`

	// Errors is the total number of failed executions
	Errors int64 `json:"errors"`

	// ErrorsByKind breaks Errors down by kind
	ErrorsByKind map[string]int64 `json:"errors_by_kind"`

	// LastResetTime is when counters were last reset
	LastResetTime time.Time `json:"last_reset_time"`
}

// AtomicRoutingStats implements thread-safe routing statistics using atomic operations.
// All counters are updated atomically for lock-free performance.
type AtomicRoutingStats struct {
	totalExecutions atomic.Int64

	// selections uses sync.Map for thread-safe concurrent access
	selections sync.Map // map[string]*atomic.Int64

	preferredHits      atomic.Int64
	preferredFallbacks atomic.Int64

	errors       atomic.Int64
	errorsByKind sync.Map // map[string]*atomic.Int64

	// mu protects lastResetTime
	mu            sync.RWMutex
	lastResetTime time.Time
}

// NewAtomicRoutingStats creates a new atomic routing statistics tracker.
func NewAtomicRoutingStats() *AtomicRoutingStats {
	return &AtomicRoutingStats{
		lastResetTime: time.Now(),
	}
}

// IncrementExecutions increments the execution counter.
func (s *AtomicRoutingStats) IncrementExecutions() {
	s.totalExecutions.Add(1)
}

// IncrementSelection increments the selection counter for a provider.
func (s *AtomicRoutingStats) IncrementSelection(providerName string) {
	increment(&s.selections, providerName)
}

// IncrementPreferredHit increments the preferred provider hit counter.
func (s *AtomicRoutingStats) IncrementPreferredHit() {
	s.preferredHits.Add(1)
}

// IncrementPreferredFallback increments the preferred provider fallback counter.
func (s *AtomicRoutingStats) IncrementPreferredFallback() {
	s.preferredFallbacks.Add(1)
}

// IncrementError increments the error counters for the given kind.
func (s *AtomicRoutingStats) IncrementError(kind string) {
	s.errors.Add(1)
	increment(&s.errorsByKind, kind)
}

// Snapshot returns a point-in-time snapshot of the statistics.
func (s *AtomicRoutingStats) Snapshot() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Stats{
		TotalExecutions:       s.totalExecutions.Load(),
		SelectionsPerProvider: collect(&s.selections),
		PreferredHits:         s.preferredHits.Load(),
		PreferredFallbacks:    s.preferredFallbacks.Load(),
		Errors:                s.errors.Load(),
		ErrorsByKind:          collect(&s.errorsByKind),
		LastResetTime:         s.lastResetTime,
	}
}

// Reset resets all statistics to zero.
func (s *AtomicRoutingStats) Reset() {
	s.totalExecutions.Store(0)
	s.preferredHits.Store(0)
	s.preferredFallbacks.Store(0)
	s.errors.Store(0)
	s.selections.Clear()
	s.errorsByKind.Clear()

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}

func increment(m *sync.Map, key string) {
	val, _ := m.LoadOrStore(key, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

func collect(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(key, value any) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

// errorKind classifies an Execute error for statistics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrModelRequired):
		return ErrorKindModelRequired
	case errors.Is(err, ErrNoProviderForModel):
		return ErrorKindNoProvider
	case errors.Is(err, ErrNoAvailableProviders):
		return ErrorKindNoAvailable
	case errors.Is(err, providers.ErrNoIntegration):
		return ErrorKindNoIntegration
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCanceled
	default:
		return ErrorKindHandler
	}
}
