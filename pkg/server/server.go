// Package server provides the HTTP front end of a conduit router.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/routing"
	"mercator-hq/conduit/pkg/security/auth"
	tlsx "mercator-hq/conduit/pkg/security/tls"
	"mercator-hq/conduit/pkg/telemetry/health"
	"mercator-hq/conduit/pkg/telemetry/metrics"
	"mercator-hq/conduit/pkg/telemetry/tracing"
)

// DefaultMaxBodyBytes limits the size of a completion request body.
const DefaultMaxBodyBytes = 4 << 20

// Server serves completions through the installed Router. The Router is held
// behind an atomic pointer so a configuration reload can swap in a new one
// without interrupting requests already running on the old one.
type Server struct {
	config config.ServerConfig
	router atomic.Pointer[routing.Router]

	collector   *metrics.Collector
	metricsPath string
	checker     *health.Checker
	version     health.VersionInfo
	logger      *slog.Logger
	tracer      trace.Tracer
	auth        *auth.Middleware

	maxBodyBytes int64

	handler      http.Handler
	httpServer   *http.Server
	mu           sync.RWMutex
	isRunning    bool
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithCollector exposes collector at path and records API metrics with it.
func WithCollector(collector *metrics.Collector, path string) Option {
	return func(s *Server) {
		s.collector = collector
		s.metricsPath = path
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for request spans. The default is a noop
// tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithVersion sets the build information served at /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) {
		s.version = health.VersionInfo{Version: version, Commit: commit, BuildTime: buildTime}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// New creates a server for router. router may be nil, in which case
// completions answer 503 until SetRouter installs one.
func New(cfg config.ServerConfig, router *routing.Router, opts ...Option) *Server {
	s := &Server{
		config:       cfg,
		logger:       slog.Default(),
		tracer:       noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		checker:      health.New(2 * time.Second),
		maxBodyBytes: DefaultMaxBodyBytes,
		version:      health.VersionInfo{Version: "dev"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metricsPath == "" {
		s.metricsPath = config.DefaultMetricsPath
	}
	s.logger = s.logger.With("component", "server")
	if cfg.Auth.Enabled {
		s.auth = auth.NewMiddleware(auth.NewKeySet(cfg.Auth.Keys), s.logger, denyUnauthorized)
	}

	if router != nil {
		s.router.Store(router)
	}
	s.checker.RegisterCheck("router", health.RouterCheck(s.Router))
	s.handler = s.setupRoutes()

	return s
}

// Router returns the installed router, or nil.
func (s *Server) Router() *routing.Router {
	return s.router.Load()
}

// SetRouter installs router for subsequent requests and returns the previous one.
func (s *Server) SetRouter(router *routing.Router) *routing.Router {
	old := s.router.Swap(router)
	if router == nil {
		s.logger.Warn("router removed")
		return old
	}
	s.logger.Info("router installed",
		"strategy", router.Strategy(),
		"providers", router.Providers(),
	)
	return old
}

// Handler returns the HTTP handler with every route and middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves HTTP on the configured address and blocks until ctx is
// canceled or the listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	if s.config.TLS.Enabled {
		tlsConfig, err := s.setupTLS(ctx)
		if err != nil {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			return err
		}
		httpServer.TLSConfig = tlsConfig
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", s.config.ListenAddress,
			"tls", s.config.TLS.Enabled,
			"mtls", s.config.TLS.ClientCAFile != "",
		)

		var err error
		if s.config.TLS.Enabled {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown stops accepting connections and waits up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		httpServer := s.httpServer
		running := s.isRunning
		s.mu.Unlock()
		if !running || httpServer == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// setupTLS loads the certificate pair and starts watching it for renewal
// until ctx is canceled.
func (s *Server) setupTLS(ctx context.Context) (*tls.Config, error) {
	cfg := s.config.TLS
	reloader := tlsx.NewCertificateReloader(cfg.CertFile, cfg.KeyFile, cfg.ReloadInterval, s.logger)
	if err := reloader.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	tlsConfig, err := tlsx.ServerConfig(cfg, reloader)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}
	return tlsConfig, nil
}

// IsRunning reports whether Start is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// setupRoutes registers every endpoint and applies the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "POST /v1/completions", s.timeout(http.HandlerFunc(s.handleCompletion)))
	s.handle(mux, "GET /v1/models", http.HandlerFunc(s.handleModels))
	s.handle(mux, "GET /v1/providers", http.HandlerFunc(s.handleProviders))
	s.handle(mux, "GET /v1/providers/{name}", http.HandlerFunc(s.handleProvider))
	s.handle(mux, "POST /v1/providers/{name}/enable", s.handleSetEnabled(true))
	s.handle(mux, "POST /v1/providers/{name}/disable", s.handleSetEnabled(false))
	s.handle(mux, "GET /v1/stats", http.HandlerFunc(s.handleStats))
	s.handle(mux, "DELETE /v1/stats", http.HandlerFunc(s.handleResetStats))

	mux.Handle("/health", s.checker.LivenessHandler())
	mux.Handle("/ready", s.checker.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(s.version.Version, s.version.Commit, s.version.BuildTime))
	if s.collector != nil && s.collector.Enabled() {
		mux.Handle("GET "+s.metricsPath, s.collector.Handler())
	}

	var handler http.Handler = mux
	handler = s.logging(handler)
	handler = s.tracing(handler)
	handler = requestID(handler)
	handler = s.recovery(handler)

	return handler
}

// handle registers h under pattern behind API key authentication when it is
// enabled. The request span and API metrics are labeled with pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.Handler) {
	if s.auth != nil {
		h = s.auth.Handle(h)
	}
	mux.Handle(pattern, s.instrument(pattern, h))
}
