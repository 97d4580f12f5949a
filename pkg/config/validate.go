package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/conduit/pkg/resilience/breaker"
	"mercator-hq/conduit/pkg/routing/strategies"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateRouter(&cfg.Router)...)
	errs = append(errs, validateResilience(&cfg.Resilience)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		})
	}

	if cfg.Secrets.CacheTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "secrets.cache_ttl",
			Message: "cache TTL must be non-negative",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates HTTP server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateTLS(&cfg.TLS)...)

	return errs
}

// validateAuth validates API key authentication.
func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && len(cfg.Keys) == 0 {
		errs = append(errs, FieldError{
			Field:   "server.auth.keys",
			Message: "at least one key is required when auth is enabled",
		})
	}

	seen := make(map[string]bool, len(cfg.Keys))
	for i, k := range cfg.Keys {
		prefix := fmt.Sprintf("server.auth.keys[%d]", i)
		if k.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "key name is required"})
		}
		if k.Key == "" {
			errs = append(errs, FieldError{Field: prefix + ".key", Message: "key value is required"})
			continue
		}
		if seen[k.Key] {
			errs = append(errs, FieldError{
				Field:   prefix + ".key",
				Message: fmt.Sprintf("key of %q duplicates another key", k.Name),
			})
		}
		seen[k.Key] = true
	}

	return errs
}

// validateTLS validates HTTPS settings.
func validateTLS(cfg *TLSConfig) []FieldError {
	var errs []FieldError

	if cfg.MinVersion != "1.2" && cfg.MinVersion != "1.3" {
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("unsupported TLS version %q (must be 1.2 or 1.3)", cfg.MinVersion),
		})
	}
	if cfg.ReloadInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "server.tls.reload_interval",
			Message: "reload interval must be non-negative",
		})
	}
	if !cfg.Enabled {
		return errs
	}

	if cfg.CertFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.cert_file", Message: "cert_file is required when TLS is enabled"})
	}
	if cfg.KeyFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.key_file", Message: "key_file is required when TLS is enabled"})
	}

	return errs
}

// validateRouter validates the strategy name.
func validateRouter(cfg *RouterConfig) []FieldError {
	if _, err := strategies.New(cfg.Strategy); err != nil {
		return []FieldError{{
			Field:   "router.strategy",
			Message: fmt.Sprintf("unknown strategy %q", cfg.Strategy),
		}}
	}
	return nil
}

// validateResilience validates retry and circuit breaker parameters. Parameters
// of a disabled policy are still checked so that enabling it later is safe.
func validateResilience(cfg *ResilienceConfig) []FieldError {
	var errs []FieldError

	r := cfg.Retry
	if r.Attempts < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.retry.attempts",
			Message: "attempts must be at least 1",
		})
	}
	if r.Attempts > 10 {
		errs = append(errs, FieldError{
			Field:   "resilience.retry.attempts",
			Message: "attempts exceeds reasonable limit (10)",
		})
	}
	if r.InitialBackoff < 0 {
		errs = append(errs, FieldError{
			Field:   "resilience.retry.initial_backoff",
			Message: "initial backoff must be non-negative",
		})
	}
	if r.MaxBackoff < r.InitialBackoff {
		errs = append(errs, FieldError{
			Field:   "resilience.retry.max_backoff",
			Message: "max backoff must not be less than initial backoff",
		})
	}
	if r.Multiplier < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.retry.multiplier",
			Message: "multiplier must be at least 1",
		})
	}

	cb := cfg.CircuitBreaker
	if cb.Threshold < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.circuit_breaker.threshold",
			Message: "threshold must be at least 1",
		})
	}
	if cb.ResetTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "resilience.circuit_breaker.reset_timeout",
			Message: "reset timeout must be positive",
		})
	}
	if cb.SamplingDuration <= 0 {
		errs = append(errs, FieldError{
			Field:   "resilience.circuit_breaker.sampling_duration",
			Message: "sampling duration must be positive",
		})
	}
	switch cb.Window {
	case breaker.WindowCumulative, breaker.WindowSliding:
	default:
		errs = append(errs, FieldError{
			Field:   "resilience.circuit_breaker.window",
			Message: fmt.Sprintf("window must be %q or %q", breaker.WindowCumulative, breaker.WindowSliding),
		})
	}
	switch cb.HalfOpen {
	case breaker.HalfOpenPermissive, breaker.HalfOpenSingleTrial:
	default:
		errs = append(errs, FieldError{
			Field:   "resilience.circuit_breaker.half_open",
			Message: fmt.Sprintf("half_open must be %q or %q", breaker.HalfOpenPermissive, breaker.HalfOpenSingleTrial),
		})
	}

	return errs
}

// validateProviders validates provider configurations.
func validateProviders(providers []ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	seen := make(map[string]bool, len(providers))
	for i, provider := range providers {
		prefix := fmt.Sprintf("providers[%d]", i)

		if provider.Name == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: "name is required",
			})
		} else {
			if seen[provider.Name] {
				errs = append(errs, FieldError{
					Field:   prefix + ".name",
					Message: fmt.Sprintf("duplicate provider name %q", provider.Name),
				})
			}
			seen[provider.Name] = true
			prefix = fmt.Sprintf("providers.%s", provider.Name)
		}

		// API keys may be empty here and injected from the environment.
		if provider.BaseURL != "" {
			if u, err := url.Parse(provider.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: "invalid URL format",
				})
			}
		}

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
		if provider.Priority < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".priority",
				Message: "priority must be non-negative",
			})
		}

		if len(provider.Models) == 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".models",
				Message: "at least one model must be declared",
			})
		}
		for j, m := range provider.Models {
			field := fmt.Sprintf("%s.models[%d]", prefix, j)
			if m.Name == "" {
				errs = append(errs, FieldError{
					Field:   field + ".name",
					Message: "model name is required",
				})
			}
			if m.CostPer1KInput < 0 || m.CostPer1KOutput < 0 {
				errs = append(errs, FieldError{
					Field:   field,
					Message: "costs must be non-negative",
				})
			}
			if m.MaxTokens < 0 {
				errs = append(errs, FieldError{
					Field:   field + ".max_tokens",
					Message: "max tokens must be non-negative",
				})
			}
		}

		if provider.RateLimit.MaxConcurrent < 1 {
			errs = append(errs, FieldError{
				Field:   prefix + ".rate_limit.max_concurrent",
				Message: "max concurrent must be at least 1",
			})
		}
		if provider.RateLimit.TokensPerSecond < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".rate_limit.tokens_per_second",
				Message: "tokens per second must be non-negative",
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	for i := 1; i < len(cfg.Metrics.LatencyBuckets); i++ {
		if cfg.Metrics.LatencyBuckets[i] <= cfg.Metrics.LatencyBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.latency_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	if cfg.Report.Enabled {
		if _, err := cron.ParseStandard(cfg.Report.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.report.schedule",
				Message: fmt.Sprintf("invalid schedule: %v", err),
			})
		}
	}

	errs = append(errs, validateTracing(&cfg.Tracing)...)

	return errs
}

// validateTracing validates tracing configuration.
func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (must be always, never, or ratio)", cfg.Sampler),
		})
	}

	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Enabled && cfg.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.timeout",
			Message: "timeout must be non-negative",
		})
	}

	return errs
}
