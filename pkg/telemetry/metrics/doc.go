// Package metrics provides Prometheus metrics for conduit.
//
// # Overview
//
// The Collector implements routing.Observer, so a Router reports every
// routed call, rate-limit skip, retry and breaker transition into it:
//
//	registry := prometheus.NewRegistry()
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, registry)
//	router, err := routing.New(cfg, routing.WithObserver(collector))
//
// The HTTP server records API requests and token usage through
// RecordAPIRequest and RecordUsage, and mounts Handler at the configured
// metrics path.
//
// # Cardinality
//
// Model labels are bounded by a CardinalityLimiter. Once
// DefaultMaxCardinality provider/model pairs have been seen, new models are
// reported as "other".
package metrics
