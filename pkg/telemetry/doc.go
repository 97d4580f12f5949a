// Package telemetry groups the observability packages of conduit:
//
//   - logging: slog construction, request-scoped fields and redaction
//   - metrics: Prometheus collectors for routing, providers and the HTTP API
//   - tracing: OpenTelemetry spans for requests, executions and attempts
//   - health: liveness, readiness and version endpoints
package telemetry
