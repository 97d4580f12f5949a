package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/conduit/pkg/config"
)

// RequestMetrics tracks metrics of the HTTP API.
//
// Metrics:
//   - conduit_api_requests_total: Request count by endpoint and status code
//   - conduit_api_request_duration_seconds: Request duration histogram
//   - conduit_api_tokens_total: Tokens reported by providers
//   - conduit_api_cost_usd_total: Priced cost of served completions
type RequestMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec

	// Token counts (prompt and completion)
	tokensTotal *prometheus.CounterVec

	costTotal *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	const subsystem = "api"

	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of API requests served",
			},
			[]string{"endpoint", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"endpoint"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "tokens_total",
				Help:      "Total number of tokens reported by providers",
			},
			[]string{"provider", "model", "type"},
		),

		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "cost_usd_total",
				Help:      "Total cost in USD of served completions, priced from the provider model table",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.tokensTotal,
		rm.costTotal,
	)

	return rm
}

// RecordRequest records a served API request.
func (rm *RequestMetrics) RecordRequest(endpoint string, code int, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	rm.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordTokens records token counts separately for prompt and completion.
func (rm *RequestMetrics) RecordTokens(provider, model string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		rm.tokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		rm.tokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordCost adds the cost of one completion.
func (rm *RequestMetrics) RecordCost(provider, model string, usd float64) {
	if usd > 0 {
		rm.costTotal.WithLabelValues(provider, model).Add(usd)
	}
}
