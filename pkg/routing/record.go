package routing

import (
	"sort"
	"sync"
	"time"

	"mercator-hq/conduit/pkg/limits/ratelimit"
	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/resilience/breaker"
	"mercator-hq/conduit/pkg/resilience/retry"
	"mercator-hq/conduit/pkg/routing/strategies"
)

// providerRecord is the router-owned state of one provider. Identity,
// models and policies are fixed at construction; mu guards the rest.
// The breaker and limiter carry their own synchronisation.
type providerRecord struct {
	name       string
	typ        string
	priority   int
	models     map[string]providers.ModelSpec
	modelNames []string
	handler    providers.Handler

	breaker breaker.Breaker
	limiter *ratelimit.Limiter
	retry   *retry.Controller

	mu         sync.Mutex
	enabled    bool
	lastUsedAt time.Time
	metrics    Metrics
}

func newProviderRecord(name, typ string, priority int, models []providers.ModelSpec) *providerRecord {
	rec := &providerRecord{
		name:     name,
		typ:      typ,
		priority: priority,
		models:   make(map[string]providers.ModelSpec, len(models)),
		enabled:  true,
	}
	for _, m := range models {
		rec.models[m.Name] = m
		rec.modelNames = append(rec.modelNames, m.Name)
	}
	sort.Strings(rec.modelNames)
	return rec
}

func (r *providerRecord) supports(model string) bool {
	_, ok := r.models[model]
	return ok
}

func (r *providerRecord) isEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *providerRecord) setEnabled(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	r.mu.Unlock()
}

// candidate returns the read-only view handed to strategies.
func (r *providerRecord) candidate(model string) strategies.Candidate {
	r.mu.Lock()
	last := r.lastUsedAt
	r.mu.Unlock()

	c := strategies.Candidate{
		Name:       r.name,
		Priority:   r.priority,
		LastUsedAt: last,
	}
	if spec, ok := r.models[model]; ok {
		c.Model = &spec
	}
	return c
}

// touch stamps the record as selected. lastUsedAt never moves backwards.
func (r *providerRecord) touch(now time.Time) {
	r.mu.Lock()
	if now.After(r.lastUsedAt) {
		r.lastUsedAt = now
	}
	r.mu.Unlock()
}

func (r *providerRecord) recordOutcome(err error, now time.Time, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.metrics.recordSuccess(now, latency)
	} else {
		r.metrics.recordFailure(now)
	}
}

func (r *providerRecord) recordRateLimited() {
	r.mu.Lock()
	r.metrics.recordRateLimited()
	r.mu.Unlock()
}

// ProviderSnapshot is a point-in-time copy of a provider's state.
type ProviderSnapshot struct {
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	Models     []string         `json:"models"`
	Priority   int              `json:"priority"`
	Enabled    bool             `json:"enabled"`
	LastUsedAt time.Time        `json:"last_used_at,omitzero"`
	Circuit    breaker.Snapshot `json:"circuit"`
	Limiter    ratelimit.Stats  `json:"limiter"`
	Metrics    Metrics          `json:"metrics"`
}

func (r *providerRecord) snapshot() ProviderSnapshot {
	circuit := r.breaker.Snapshot()
	limiter := r.limiter.Stats()

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.metrics
	m.CircuitBreakerTrips = circuit.Trips

	return ProviderSnapshot{
		Name:       r.name,
		Type:       r.typ,
		Models:     append([]string(nil), r.modelNames...),
		Priority:   r.priority,
		Enabled:    r.enabled,
		LastUsedAt: r.lastUsedAt,
		Circuit:    circuit,
		Limiter:    limiter,
		Metrics:    m,
	}
}
