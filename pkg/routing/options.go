package routing

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/conduit/pkg/providers"
)

// Option configures a Router at construction.
type Option func(*options)

type options struct {
	handlers     map[string]providers.Handler
	logger       *slog.Logger
	registry     *providers.Registry
	observer     Observer
	now          func() time.Time
	newRequestID func() string
	tracer       trace.Tracer
}

// WithHandler registers a custom handler for the named provider. A custom
// handler takes precedence over the built-in integration for the provider's type.
func WithHandler(provider string, h providers.Handler) Option {
	return func(o *options) {
		if o.handlers == nil {
			o.handlers = make(map[string]providers.Handler)
		}
		o.handlers[provider] = h
	}
}

// WithLogger sets the logger. The default is slog.Default() tagged with
// component=routing.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry sets the built-in integration registry used for providers
// without a custom handler.
func WithRegistry(reg *providers.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithObserver sets the routing event observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithClock sets the time source for lastUsedAt stamps, latency and breaker
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRequestIDGenerator replaces the request id generator used when a
// request carries no id.
func WithRequestIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newRequestID = gen
		}
	}
}

// WithTracer sets the tracer used for execute and attempt spans. The default
// is a noop tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// ExecuteOption configures a single Execute call.
type ExecuteOption func(*executeOptions)

type executeOptions struct {
	preferred []string
}

// WithPreferredProviders restricts selection to the named providers first.
// If none of them can be admitted, selection falls back to every candidate.
func WithPreferredProviders(names ...string) ExecuteOption {
	return func(o *executeOptions) {
		o.preferred = append(o.preferred, names...)
	}
}
