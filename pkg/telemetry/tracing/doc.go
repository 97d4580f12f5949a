// Package tracing provides OpenTelemetry tracing for conduit.
//
// A request served over HTTP produces one span tree:
//
//	http.request                 (server middleware)
//	└── routing.execute          (Router.Execute: model, strategy, selected provider)
//	    ├── provider.attempt     (attempt 1)
//	    └── provider.attempt     (attempt 2, after a retry)
//
// Incoming W3C traceparent headers are honored, and the built-in HTTP
// integrations inject the current trace context into provider requests.
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "localhost:4317"   # OTLP gRPC collector
//	    insecure: true
//	    sampler: ratio               # always, never, ratio
//	    sample_ratio: 0.1
//
// When tracing is disabled a noop tracer is used and spans cost almost nothing.
package tracing
