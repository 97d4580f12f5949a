// Package server provides the HTTP front end of a conduit router.
//
// # Routes
//
//   - POST /v1/completions - route a completion request
//   - GET /v1/models - models served by the installed router
//   - GET /v1/providers - snapshots of every provider
//   - GET /v1/providers/{name} - snapshot of one provider
//   - POST /v1/providers/{name}/enable and /disable - take a provider in or out of selection
//   - GET /v1/stats, DELETE /v1/stats - router-wide counters
//   - GET /health, /ready, /version - probes
//   - GET /metrics - Prometheus exposition when a collector is configured
//
// Routing failures are answered with a JSON error body:
//
//	{"error": {"message": "no available providers for model \"gpt-4\" ...", "type": "service_unavailable", "code": "provider_unavailable"}}
//
// Status codes: 400 model required or bad JSON, 404 unknown model or provider,
// 413 body too large, 503 no available provider or no router, 504 provider
// timeout, 502 any other provider failure.
//
// # Router swap
//
// The server reads its Router through an atomic pointer. SetRouter installs a
// new one; requests already executing finish on the old instance.
//
// # Middleware chain
//
// Requests pass through recovery, request id and logging middleware in that
// order. Routes under /v1 are additionally instrumented with API metrics.
package server
