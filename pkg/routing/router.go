package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/costs"
	"mercator-hq/conduit/pkg/limits/ratelimit"
	"mercator-hq/conduit/pkg/providerfactory"
	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/resilience/breaker"
	"mercator-hq/conduit/pkg/resilience/retry"
	"mercator-hq/conduit/pkg/routing/strategies"
	"mercator-hq/conduit/pkg/telemetry/logging"
	"mercator-hq/conduit/pkg/telemetry/tracing"
)

// Response metadata keys set by Execute.
const (
	MetaRequestID = "request_id"
	MetaAttempts  = "attempts"
	MetaLatencyMS = "latency_ms"
	MetaStrategy  = "strategy"
	MetaCostUSD   = "cost_usd"
)

// Router selects a provider for each request and invokes it under the
// provider's circuit breaker, rate limiter and retry controller.
//
// A Router is built once from a validated configuration. Its provider set
// and policies never change afterwards; providers can only be enabled or
// disabled. To apply a new configuration build a new Router.
//
// # Thread Safety
//
// Router is safe for concurrent use. Each provider record has its own lock
// and there is no router-wide lock on the request path.
type Router struct {
	strategy     strategies.Strategy
	defaultModel string
	records      []*providerRecord
	byName       map[string]*providerRecord

	logger       *slog.Logger
	observer     Observer
	now          func() time.Time
	newRequestID func() string
	tracer       trace.Tracer
	costs        *costs.Calculator
	stats        *AtomicRoutingStats
}

// New builds a Router from cfg.
//
// Each provider is served by its custom handler (WithHandler) if one is
// registered, otherwise by the built-in integration for its type. A provider
// whose integration fails to build is skipped with a warning; a provider
// whose type has no integration is kept and fails at call time with
// providers.NoIntegrationError.
func New(cfg *config.Config, opts ...Option) (*Router, error) {
	if cfg == nil || len(cfg.Providers) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	o := options{
		logger:       slog.Default().With("component", "routing"),
		observer:     NopObserver{},
		now:          time.Now,
		newRequestID: uuid.NewString,
		tracer:       noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = providerfactory.DefaultRegistry()
	}

	strategy, err := strategies.New(cfg.Router.Strategy)
	if err != nil {
		return nil, err
	}

	r := &Router{
		strategy:     strategy,
		defaultModel: cfg.Router.DefaultModel,
		byName:       make(map[string]*providerRecord, len(cfg.Providers)),
		logger:       o.logger,
		observer:     o.observer,
		now:          o.now,
		newRequestID: o.newRequestID,
		tracer:       o.tracer,
		costs:        costs.NewCalculator(cfg.Providers),
		stats:        NewAtomicRoutingStats(),
	}

	seen := make(map[string]bool, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		if len(pc.Models) == 0 {
			return nil, fmt.Errorf("provider %q: %w", pc.Name, ErrNoModels)
		}
		if seen[pc.Name] {
			return nil, fmt.Errorf("provider %q: %w", pc.Name, ErrDuplicateProvider)
		}
		seen[pc.Name] = true

		rec, err := r.buildRecord(pc, cfg.Resilience, &o)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		r.records = append(r.records, rec)
		r.byName[rec.name] = rec
	}

	for name := range o.handlers {
		if !seen[name] {
			r.logger.Warn("custom handler registered for unknown provider", "provider", name)
		}
	}

	if len(r.records) == 0 {
		return nil, ErrNoProvidersConstructed
	}

	r.logger.Info("router created",
		"strategy", r.strategy.Name(),
		"providers", len(r.records),
		"retry_enabled", cfg.Resilience.Retry.Enabled,
		"circuit_breaker_enabled", cfg.Resilience.CircuitBreaker.Enabled,
	)

	return r, nil
}

// buildRecord assembles the record for one provider. It returns a nil record
// when the provider must be skipped and an error when construction must stop.
func (r *Router) buildRecord(pc config.ProviderConfig, res config.ResilienceConfig, o *options) (*providerRecord, error) {
	models := make([]providers.ModelSpec, 0, len(pc.Models))
	for _, m := range pc.Models {
		models = append(models, providers.ModelSpec{
			Name:            m.Name,
			CostPer1KInput:  m.CostPer1KInput,
			CostPer1KOutput: m.CostPer1KOutput,
			MaxTokens:       m.MaxTokens,
		})
	}

	rec := newProviderRecord(pc.Name, pc.Type, pc.Priority, models)
	rec.enabled = pc.IsEnabled()

	if h, ok := o.handlers[pc.Name]; ok && h != nil {
		rec.handler = h
	} else if o.registry.Has(pc.Type) {
		h, err := o.registry.Build(providers.ProviderConfig{
			Name:    pc.Name,
			Type:    pc.Type,
			BaseURL: pc.BaseURL,
			APIKey:  pc.APIKey,
			Timeout: pc.Timeout,
		})
		if err != nil {
			r.logger.Warn("skipping provider, integration could not be built",
				"provider", pc.Name,
				"type", pc.Type,
				"error", err,
			)
			return nil, nil
		}
		rec.handler = h
	}

	cb, err := breaker.New(pc.Name, breaker.Config{
		Enabled:          res.CircuitBreaker.Enabled,
		Threshold:        res.CircuitBreaker.Threshold,
		SamplingDuration: res.CircuitBreaker.SamplingDuration,
		ResetTimeout:     res.CircuitBreaker.ResetTimeout,
		Window:           res.CircuitBreaker.Window,
		HalfOpen:         res.CircuitBreaker.HalfOpen,
	},
		breaker.WithClock(r.now),
		breaker.WithOnStateChange(r.stateChanged),
	)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", pc.Name, err)
	}
	rec.breaker = cb

	rec.limiter = ratelimit.NewLimiter(ratelimit.Config{
		MaxConcurrent:   pc.RateLimit.MaxConcurrent,
		TokensPerSecond: pc.RateLimit.TokensPerSecond,
	})

	name := pc.Name
	rec.retry = retry.New(retry.Config{
		Enabled:        res.Retry.Enabled,
		Attempts:       res.Retry.Attempts,
		InitialBackoff: res.Retry.InitialBackoff,
		MaxBackoff:     res.Retry.MaxBackoff,
		Multiplier:     res.Retry.Multiplier,
	}, retry.WithOnRetry(func(attempt int, err error) {
		r.logger.Debug("retrying provider call",
			"provider", name,
			"attempt", attempt,
			"error", err,
		)
		r.observer.ObserveRetry(name, attempt, err)
	}))

	return rec, nil
}

func (r *Router) stateChanged(name string, from, to breaker.State) {
	r.logger.Info("circuit breaker state changed",
		"provider", name,
		"from", from.String(),
		"to", to.String(),
	)
	r.observer.ObserveStateChange(name, from, to)
}

// Execute routes req to one provider and returns its response.
//
// The model is req.Model, or the configured default model when the request
// names none. Handler errors are returned unwrapped once retries are used
// up. Routing failures are returned as *NoProviderForModelError,
// *NoAvailableProvidersError or *providers.NoIntegrationError.
func (r *Router) Execute(ctx context.Context, req *providers.Request, opts ...ExecuteOption) (resp *providers.Response, err error) {
	r.stats.IncrementExecutions()

	ctx, span := r.tracer.Start(ctx, tracing.SpanExecute,
		trace.WithAttributes(attribute.String(tracing.AttrStrategy, r.strategy.Name())),
	)
	defer func() {
		if err != nil {
			tracing.SetError(span, err, errorKind(err))
		} else {
			tracing.SetStatus(span, nil)
		}
		span.End()
	}()

	var eo executeOptions
	for _, opt := range opts {
		opt(&eo)
	}

	if req == nil {
		req = &providers.Request{}
	}
	model := req.Model
	if model == "" {
		model = r.defaultModel
	}
	if model == "" {
		return nil, r.fail(ErrModelRequired)
	}

	requestID := requestIDFor(ctx, req)
	if requestID == "" {
		requestID = r.newRequestID()
	}
	logger := r.logger.With("request_id", requestID, "model", model)
	span.SetAttributes(
		attribute.String(tracing.AttrModel, model),
		attribute.String(tracing.AttrRequestID, requestID),
	)
	if len(eo.preferred) > 0 {
		span.SetAttributes(attribute.StringSlice(tracing.AttrPreferred, eo.preferred))
	}

	candidates := r.filterByModel(model)
	if len(candidates) == 0 {
		return nil, r.fail(&NoProviderForModelError{
			Model:           model,
			AvailableModels: r.availableModels(),
		})
	}

	sel := newSelection(model)
	var (
		rec  *providerRecord
		done func(error)
	)
	if len(eo.preferred) > 0 {
		rec, done = r.selectFrom(filterByName(candidates, eo.preferred), sel)
		if rec != nil {
			r.stats.IncrementPreferredHit()
		} else {
			r.stats.IncrementPreferredFallback()
			logger.Debug("no preferred provider admissible, falling back",
				"preferred", eo.preferred,
			)
		}
	}
	if rec == nil {
		rec, done = r.selectFrom(candidates, sel)
	}
	if rec == nil {
		logger.Warn("no available providers", sel.logAttrs()...)
		return nil, r.fail(&NoAvailableProvidersError{
			Model:       model,
			CircuitOpen: sel.circuitOpen,
			Saturated:   sel.saturated,
		})
	}

	r.stats.IncrementSelection(rec.name)
	logger = logger.With("provider", rec.name)
	logger.Debug("provider selected", "strategy", r.strategy.Name())
	span.SetAttributes(attribute.String(tracing.AttrProvider, rec.name))

	call := req.Clone()
	call.Model = model
	if call.Metadata == nil {
		call.Metadata = make(map[string]string)
	}
	call.Metadata[MetaRequestID] = requestID

	resp, attempts, latency, err := r.invoke(ctx, rec, done, call)
	span.SetAttributes(attribute.Int(tracing.AttrAttempts, attempts))

	if err != nil {
		logger.Warn("provider call failed",
			"attempts", attempts,
			"latency_ms", latency.Milliseconds(),
			"error", err,
		)
		return nil, r.fail(err)
	}

	if resp == nil {
		resp = &providers.Response{}
	}
	resp.Provider = rec.name
	if resp.Model == "" {
		resp.Model = model
	}
	if resp.Metadata == nil {
		resp.Metadata = make(map[string]any)
	}
	resp.Metadata[MetaRequestID] = requestID
	resp.Metadata[MetaAttempts] = attempts
	resp.Metadata[MetaLatencyMS] = latency.Milliseconds()
	resp.Metadata[MetaStrategy] = r.strategy.Name()
	if est, ok := r.costs.Cost(rec.name, resp.Model, resp.Usage); ok {
		resp.Metadata[MetaCostUSD] = est.TotalCost
		span.SetAttributes(attribute.Float64(tracing.AttrCostUSD, est.TotalCost))
	}

	logger.Info("request routed",
		"attempts", attempts,
		"latency_ms", latency.Milliseconds(),
	)

	return resp, nil
}

// invoke runs the selected provider under the breaker admission taken at
// selection: the limiter, then the retry loop. done reports the outcome to
// the breaker. The breaker and metrics see exactly one outcome per
// invocation.
func (r *Router) invoke(ctx context.Context, rec *providerRecord, done func(error), req *providers.Request) (*providers.Response, int, time.Duration, error) {
	start := r.now()
	var (
		resp     *providers.Response
		attempts int
		err      error
	)

	if rec.handler == nil {
		err = &providers.NoIntegrationError{Provider: rec.name, Type: rec.typ}
	} else {
		err = rec.limiter.Do(ctx, func(ctx context.Context) error {
			var callErr error
			resp, callErr = retry.Do(ctx, rec.retry, func(ctx context.Context) (*providers.Response, error) {
				attempts++
				return r.attempt(ctx, rec, req, attempts)
			})
			return callErr
		})
	}

	now := r.now()
	latency := now.Sub(start)
	done(err)
	rec.recordOutcome(err, now, latency)
	r.observer.ObserveOutcome(rec.name, req.Model, err, latency)

	return resp, attempts, latency, err
}

// attempt makes one handler call inside its own span.
func (r *Router) attempt(ctx context.Context, rec *providerRecord, req *providers.Request, n int) (*providers.Response, error) {
	ctx, span := r.tracer.Start(ctx, tracing.SpanAttempt,
		trace.WithAttributes(attribute.Int(tracing.AttrAttempt, n)),
	)
	defer span.End()
	tracing.SetProviderAttributes(span, rec.name, req.Model)

	resp, err := rec.handler(ctx, req)
	if err != nil {
		tracing.SetError(span, err, "")
		return resp, err
	}
	if resp != nil && resp.Usage != nil {
		tracing.SetTokenAttributes(span, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	tracing.SetStatus(span, nil)
	return resp, nil
}

func (r *Router) fail(err error) error {
	r.stats.IncrementError(errorKind(err))
	return err
}

func requestIDFor(ctx context.Context, req *providers.Request) string {
	if id := req.Metadata[MetaRequestID]; id != "" {
		return id
	}
	return logging.GetRequestID(ctx)
}

// Enable puts a provider back into selection.
func (r *Router) Enable(name string) error {
	return r.setEnabled(name, true)
}

// Disable removes a provider from selection. Calls already in flight finish.
func (r *Router) Disable(name string) error {
	return r.setEnabled(name, false)
}

func (r *Router) setEnabled(name string, enabled bool) error {
	rec, ok := r.byName[name]
	if !ok {
		return &ProviderNotFoundError{ProviderName: name}
	}
	rec.setEnabled(enabled)
	r.logger.Info("provider enabled state changed", "provider", name, "enabled", enabled)
	return nil
}

// Snapshot returns a copy of the named provider's state.
func (r *Router) Snapshot(name string) (ProviderSnapshot, error) {
	rec, ok := r.byName[name]
	if !ok {
		return ProviderSnapshot{}, &ProviderNotFoundError{ProviderName: name}
	}
	return rec.snapshot(), nil
}

// Snapshots returns a copy of every provider's state in declaration order.
func (r *Router) Snapshots() []ProviderSnapshot {
	out := make([]ProviderSnapshot, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.snapshot())
	}
	return out
}

// Stats returns router-wide counters.
func (r *Router) Stats() *Stats {
	return r.stats.Snapshot()
}

// ResetStats zeroes router-wide counters. Provider metrics are kept.
func (r *Router) ResetStats() {
	r.stats.Reset()
}

// Strategy returns the canonical name of the load-balancing strategy.
func (r *Router) Strategy() string {
	return r.strategy.Name()
}

// Models returns every model declared by any provider, sorted.
func (r *Router) Models() []string {
	var models []string
	for _, rec := range r.records {
		for _, m := range rec.modelNames {
			if !slices.Contains(models, m) {
				models = append(models, m)
			}
		}
	}
	slices.Sort(models)
	return models
}

// Providers returns the provider names in declaration order.
func (r *Router) Providers() []string {
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.name)
	}
	return out
}

// IsRoutingError reports whether err was produced by the router rather than
// returned by a provider handler.
func IsRoutingError(err error) bool {
	return errors.Is(err, ErrModelRequired) ||
		errors.Is(err, ErrNoProviderForModel) ||
		errors.Is(err, ErrNoAvailableProviders) ||
		errors.Is(err, providers.ErrNoIntegration)
}
