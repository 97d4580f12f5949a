package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/resilience/breaker"
	"mercator-hq/conduit/pkg/routing"
)

// ProviderMetrics tracks routed calls, failures and resilience events per
// provider.
//
// Metrics:
//   - conduit_provider_requests_total: Routed calls by provider, model, outcome
//   - conduit_provider_latency_seconds: Latency of successful calls
//   - conduit_provider_errors_total: Failed calls by error type
//   - conduit_provider_rate_limited_total: Selections skipped on a full limiter
//   - conduit_provider_retries_total: Re-attempts against the same provider
//   - conduit_provider_circuit_state: Breaker state (0=closed, 1=half-open, 2=open)
//   - conduit_provider_circuit_transitions_total: Breaker transitions
type ProviderMetrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
	retries     *prometheus.CounterVec
	circuit     *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	const subsystem = "provider"

	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of calls routed to each provider",
			},
			[]string{"provider", "model", "outcome"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "latency_seconds",
				Help:      "Latency of successful provider calls in seconds, retries included",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "errors_total",
				Help:      "Total number of failed provider calls by error type",
			},
			[]string{"provider", "error_type"},
		),

		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "rate_limited_total",
				Help:      "Total number of selections skipped because the provider was saturated",
			},
			[]string{"provider"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "retries_total",
				Help:      "Total number of re-attempts against the same provider",
			},
			[]string{"provider"},
		),

		circuit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "circuit_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"provider"},
		),

		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "circuit_transitions_total",
				Help:      "Total number of circuit breaker state transitions",
			},
			[]string{"provider", "from", "to"},
		),
	}

	registry.MustRegister(
		pm.requests,
		pm.latency,
		pm.errors,
		pm.rateLimited,
		pm.retries,
		pm.circuit,
		pm.transitions,
	)

	return pm
}

// RecordRequest records one routed call and its outcome ("success", "failure").
func (pm *ProviderMetrics) RecordRequest(provider, model, outcome string) {
	pm.requests.WithLabelValues(provider, model, outcome).Inc()
}

// RecordLatency records the latency of a successful call.
func (pm *ProviderMetrics) RecordLatency(provider, model string, latencySeconds float64) {
	pm.latency.WithLabelValues(provider, model).Observe(latencySeconds)
}

// RecordError records a failed call.
//
// Error types are produced by ErrorType:
//   - "rate_limit": Backend returned 429
//   - "timeout": Deadline exceeded
//   - "canceled": Caller went away
//   - "auth": Authentication/authorization error
//   - "server_error": Backend 5xx
//   - "client_error": Backend 4xx
//   - "parse": Response parsing error
//   - "no_integration": No handler for the provider type
//   - "circuit_open": Breaker refused admission after selection
//   - "other": Anything else
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// RecordRateLimited records a selection skipped on a saturated limiter.
func (pm *ProviderMetrics) RecordRateLimited(provider string) {
	pm.rateLimited.WithLabelValues(provider).Inc()
}

// RecordRetry records a re-attempt.
func (pm *ProviderMetrics) RecordRetry(provider string) {
	pm.retries.WithLabelValues(provider).Inc()
}

// RecordTransition records a breaker transition and sets the state gauge.
func (pm *ProviderMetrics) RecordTransition(provider string, from, to breaker.State) {
	pm.transitions.WithLabelValues(provider, from.String(), to.String()).Inc()
	pm.circuit.WithLabelValues(provider).Set(StateValue(to))
}

// StateValue maps a breaker state to its gauge value.
func StateValue(s breaker.State) float64 {
	switch s {
	case breaker.StateHalfOpen:
		return 1
	case breaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// ErrorType classifies a provider call error for the error_type label.
func ErrorType(err error) string {
	var (
		rateLimit *providers.RateLimitError
		timeout   *providers.TimeoutError
		auth      *providers.AuthError
		parse     *providers.ParseError
		provider  *providers.ProviderError
	)

	switch {
	case errors.As(err, &rateLimit):
		return "rate_limit"
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &auth):
		return "auth"
	case errors.As(err, &parse):
		return "parse"
	case errors.Is(err, providers.ErrNoIntegration):
		return "no_integration"
	case errors.Is(err, routing.ErrNoAvailableProviders):
		return "circuit_open"
	case errors.As(err, &provider):
		if provider.StatusCode >= 500 {
			return "server_error"
		}
		if provider.StatusCode >= 400 {
			return "client_error"
		}
		return "other"
	default:
		return "other"
	}
}
