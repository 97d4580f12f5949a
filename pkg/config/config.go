package config

import "time"

// Config is the root configuration structure for Conduit.
// It contains the HTTP server settings, the router and its resilience policies,
// the provider pool, and telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Router contains configuration for provider selection.
	Router RouterConfig `yaml:"router"`

	// Resilience contains the retry and circuit breaker policies shared by
	// every provider of a router instance.
	Resilience ResilienceConfig `yaml:"resilience"`

	// Providers lists the backends requests can be routed to. Order matters:
	// strategies break ties by declaration order.
	Providers []ProviderConfig `yaml:"providers"`

	// Telemetry contains configuration for logging, metrics, and the
	// periodic stats report.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch contains configuration for reloading the file on change.
	Watch WatchConfig `yaml:"watch"`

	// Secrets configures resolution of ${secret:name} references in
	// provider and server API keys.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It should exceed the slowest expected provider call.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// Auth configures API key authentication of the /v1 endpoints.
	Auth AuthConfig `yaml:"auth"`

	// TLS configures HTTPS.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig configures API key authentication.
type AuthConfig struct {
	// Enabled requires a valid key on every /v1 request. Health, version and
	// metrics endpoints stay open.
	Enabled bool `yaml:"enabled"`

	// Keys lists the accepted API keys. Values may be ${secret:name}
	// references.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	// Name identifies the caller in logs. The key itself is never logged.
	Name string `yaml:"name"`

	// Key is the secret presented as "Authorization: Bearer <key>" or in the
	// X-API-Key header.
	Key string `yaml:"key"`

	// Enabled can revoke a key without removing it. Default: true
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether the key is accepted. An unset flag means enabled.
func (k APIKeyConfig) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// TLSConfig configures HTTPS for the server.
type TLSConfig struct {
	// Enabled serves HTTPS instead of HTTP.
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the lowest TLS version accepted.
	// Options: "1.2", "1.3"
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ClientCAFile enables mutual TLS: clients must present a certificate
	// signed by a CA in this PEM file.
	ClientCAFile string `yaml:"client_ca_file"`

	// ReloadInterval is how often the certificate files are checked for
	// changes. Zero disables reloading.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// RouterConfig contains configuration for provider selection.
type RouterConfig struct {
	// Strategy is the load-balancing strategy.
	// Options: "round_robin", "cost_priority_round_robin"
	// Default: "round_robin"
	Strategy string `yaml:"strategy"`

	// DefaultModel is used when a request does not name a model.
	DefaultModel string `yaml:"default_model"`
}

// ResilienceConfig groups the per-router resilience policies. A disabled
// policy is a pass-through.
type ResilienceConfig struct {
	Retry          RetryConfig          `yaml:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// RetryConfig configures the retry controller.
type RetryConfig struct {
	// Enabled turns retries on. When false every call is attempted once.
	Enabled bool `yaml:"enabled"`

	// Attempts is the total number of attempts including the first.
	// Default: 3
	Attempts int `yaml:"attempts"`

	// InitialBackoff is the delay before the second attempt.
	// Default: 100ms
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the delay between attempts.
	// Default: 10s
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// Multiplier grows the delay after each attempt.
	// Default: 2
	Multiplier float64 `yaml:"multiplier"`
}

// CircuitBreakerConfig configures the per-provider circuit breaker.
type CircuitBreakerConfig struct {
	// Enabled turns the breaker on. When false providers are never skipped
	// for failures.
	Enabled bool `yaml:"enabled"`

	// Threshold is the number of failures that opens the circuit.
	// Default: 5
	Threshold int `yaml:"threshold"`

	// SamplingDuration is the failure window length for the "sliding" window.
	// Default: 60s
	SamplingDuration time.Duration `yaml:"sampling_duration"`

	// ResetTimeout is how long the circuit stays open before it half-opens.
	// Default: 30s
	ResetTimeout time.Duration `yaml:"reset_timeout"`

	// Window selects how failures are counted while closed.
	// Options: "cumulative", "sliding"
	// Default: "cumulative"
	Window string `yaml:"window"`

	// HalfOpen selects how a half-open circuit admits calls. "permissive"
	// admits every caller and stays half-open on failure; "single_trial"
	// admits one trial call and reopens if it fails.
	// Options: "permissive", "single_trial"
	// Default: "permissive"
	HalfOpen string `yaml:"half_open"`
}

// ProviderConfig contains configuration for a single provider.
type ProviderConfig struct {
	// Name uniquely identifies the provider.
	Name string `yaml:"name"`

	// Type selects the built-in integration used when no custom handler is
	// registered for this provider (e.g., "openai", "anthropic", "generic", "echo").
	Type string `yaml:"type"`

	// BaseURL is the base URL for the provider's API endpoint.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the provider.
	// Prefer CONDUIT_PROVIDER_<NAME>_API_KEY over storing keys in the file.
	APIKey string `yaml:"api_key"`

	// Timeout bounds a single HTTP exchange with the provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// Priority weights the cost-priority score. Lower is preferred.
	// Default: 1
	Priority int `yaml:"priority"`

	// Enabled controls whether the provider takes part in selection.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Models lists the models this provider serves.
	Models []ModelConfig `yaml:"models"`

	// RateLimit bounds concurrency and throughput for this provider.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// IsEnabled reports whether the provider is enabled. An unset flag means enabled.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ModelConfig describes a model served by a provider.
type ModelConfig struct {
	Name            string  `yaml:"name"`
	CostPer1KInput  float64 `yaml:"cost_per_1k_input"`
	CostPer1KOutput float64 `yaml:"cost_per_1k_output"`
	MaxTokens       int     `yaml:"max_tokens"`
}

// RateLimitConfig bounds calls to one provider.
type RateLimitConfig struct {
	// MaxConcurrent is the number of calls allowed in flight at once.
	// Default: 10
	MaxConcurrent int `yaml:"max_concurrent"`

	// TokensPerSecond spaces call starts. Zero disables pacing.
	TokensPerSecond float64 `yaml:"tokens_per_second"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Report contains configuration for the scheduled provider stats report.
	Report ReportConfig `yaml:"report"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether Prometheus metrics are collected and served.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "conduit"
	Namespace string `yaml:"namespace"`

	// LatencyBuckets defines histogram buckets for call latency (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// ReportConfig configures the periodic provider stats report.
type ReportConfig struct {
	// Enabled turns the report on.
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression or descriptor (e.g., "@every 1m").
	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled turns span export on.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// Sampler selects root spans to record.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of root spans sampled with the ratio sampler.
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "conduit"
	ServiceName string `yaml:"service_name"`

	// Timeout bounds each export call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig configures reloading of the configuration file.
type WatchConfig struct {
	// Enabled turns the file watcher on.
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period after the last change before reloading.
	// Default: 250ms
	Debounce time.Duration `yaml:"debounce"`
}

// SecretsConfig configures where ${secret:name} references are looked up.
type SecretsConfig struct {
	// EnvPrefix is prepended to the upper-cased secret name to form the
	// environment variable holding it.
	// Default: "CONDUIT_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Directory holds one file per secret. It is consulted before the
	// environment when set.
	Directory string `yaml:"directory"`

	// CacheTTL is how long resolved values are reused.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}
