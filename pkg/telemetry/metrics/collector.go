package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/resilience/breaker"
	"mercator-hq/conduit/pkg/routing"
)

// DefaultMaxCardinality bounds the distinct provider/model pairs tracked
// before new models are folded into the "other" label.
const DefaultMaxCardinality = 1000

// otherModel is the model label used once the cardinality limit is reached.
const otherModel = "other"

var _ routing.Observer = (*Collector)(nil)

// Collector owns every Prometheus metric exported by conduit. It implements
// routing.Observer so a Router reports into it directly, and it records API
// request metrics for the HTTP server.
//
// A Collector built from a disabled configuration registers its metrics but
// drops every update.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	providerMetrics *ProviderMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	router, err := routing.New(cfg, routing.WithObserver(collector))
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = config.DefaultLatencyBuckets
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		requestMetrics:     NewRequestMetrics(cfg, registry),
		providerMetrics:    NewProviderMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxCardinality),
	}
}

// ObserveOutcome records the final outcome of one routed call.
func (c *Collector) ObserveOutcome(provider, model string, err error, latency time.Duration) {
	if !c.config.Enabled {
		return
	}

	model = c.modelLabel(provider, model)
	if err != nil {
		c.providerMetrics.RecordRequest(provider, model, "failure")
		c.providerMetrics.RecordError(provider, ErrorType(err))
		return
	}
	c.providerMetrics.RecordRequest(provider, model, "success")
	c.providerMetrics.RecordLatency(provider, model, latency.Seconds())
}

// ObserveRateLimited records a provider skipped because its limiter was full.
func (c *Collector) ObserveRateLimited(provider string) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.RecordRateLimited(provider)
}

// ObserveStateChange records a circuit breaker transition. It is called
// under the breaker's lock and only touches Prometheus atomics.
func (c *Collector) ObserveStateChange(provider string, from, to breaker.State) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.RecordTransition(provider, from, to)
}

// ObserveRetry records a re-attempt against the same provider.
func (c *Collector) ObserveRetry(provider string, _ int, _ error) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.RecordRetry(provider)
}

// RecordAPIRequest records one HTTP API request.
//
// Parameters:
//   - endpoint: Route pattern (e.g., "/v1/completions")
//   - code: HTTP status code written
//   - duration: Time spent serving the request
func (c *Collector) RecordAPIRequest(endpoint string, code int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.requestMetrics.RecordRequest(endpoint, code, duration)
}

// RecordUsage records the token usage reported by a provider.
func (c *Collector) RecordUsage(provider, model string, usage *providers.TokenUsage) {
	if !c.config.Enabled || usage == nil {
		return
	}

	c.requestMetrics.RecordTokens(provider, c.modelLabel(provider, model), usage.PromptTokens, usage.CompletionTokens)
}

// RecordCost records the priced cost of one completion in USD.
func (c *Collector) RecordCost(provider, model string, usd float64) {
	if !c.config.Enabled {
		return
	}

	c.requestMetrics.RecordCost(provider, c.modelLabel(provider, model), usd)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether updates are recorded.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

func (c *Collector) modelLabel(provider, model string) string {
	if !c.cardinalityLimiter.Allow(provider + ":" + model) {
		return otherModel
	}
	return model
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
