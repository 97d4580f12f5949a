package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultTLSMinVersion   = "1.3"
	DefaultTLSReload       = 5 * time.Minute

	// Secrets defaults
	DefaultSecretsEnvPrefix = "CONDUIT_SECRET_"
	DefaultSecretsCacheTTL  = 5 * time.Minute

	// Router defaults
	DefaultStrategy = "round_robin"

	// Retry defaults
	DefaultRetryAttempts       = 3
	DefaultRetryInitialBackoff = 100 * time.Millisecond
	DefaultRetryMaxBackoff     = 10 * time.Second
	DefaultRetryMultiplier     = 2.0

	// Circuit breaker defaults
	DefaultBreakerThreshold        = 5
	DefaultBreakerSamplingDuration = 60 * time.Second
	DefaultBreakerResetTimeout     = 30 * time.Second
	DefaultBreakerWindow           = "cumulative"
	DefaultBreakerHalfOpen         = "permissive"

	// Provider defaults
	DefaultProviderTimeout  = 60 * time.Second
	DefaultProviderPriority = 1
	DefaultMaxConcurrent    = 10

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "conduit"
	DefaultReportSchedule   = "@every 1m"

	// Tracing defaults
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampler     = "always"
	DefaultTracingServiceName = "conduit"
	DefaultTracingTimeout     = 10 * time.Second

	// Watch defaults
	DefaultWatchDebounce = 250 * time.Millisecond
)

// DefaultLatencyBuckets are the histogram buckets used for call latency.
var DefaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.Enabled && cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReload
	}

	if cfg.Router.Strategy == "" {
		cfg.Router.Strategy = DefaultStrategy
	}

	applyResilienceDefaults(&cfg.Resilience)

	// Provider defaults - applied to each provider
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.Priority == 0 {
			p.Priority = DefaultProviderPriority
		}
		if p.RateLimit.MaxConcurrent == 0 {
			p.RateLimit.MaxConcurrent = DefaultMaxConcurrent
		}
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.LatencyBuckets) == 0 {
		cfg.Telemetry.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}
	if cfg.Telemetry.Report.Schedule == "" {
		cfg.Telemetry.Report.Schedule = DefaultReportSchedule
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretsCacheTTL
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}

func applyResilienceDefaults(cfg *ResilienceConfig) {
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = DefaultRetryAttempts
	}
	if cfg.Retry.InitialBackoff == 0 {
		cfg.Retry.InitialBackoff = DefaultRetryInitialBackoff
	}
	if cfg.Retry.MaxBackoff == 0 {
		cfg.Retry.MaxBackoff = DefaultRetryMaxBackoff
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = DefaultRetryMultiplier
	}

	if cfg.CircuitBreaker.Threshold == 0 {
		cfg.CircuitBreaker.Threshold = DefaultBreakerThreshold
	}
	if cfg.CircuitBreaker.SamplingDuration == 0 {
		cfg.CircuitBreaker.SamplingDuration = DefaultBreakerSamplingDuration
	}
	if cfg.CircuitBreaker.ResetTimeout == 0 {
		cfg.CircuitBreaker.ResetTimeout = DefaultBreakerResetTimeout
	}
	if cfg.CircuitBreaker.Window == "" {
		cfg.CircuitBreaker.Window = DefaultBreakerWindow
	}
	if cfg.CircuitBreaker.HalfOpen == "" {
		cfg.CircuitBreaker.HalfOpen = DefaultBreakerHalfOpen
	}
}
