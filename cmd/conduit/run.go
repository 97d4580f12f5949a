package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/conduit/pkg/cli"
	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/report"
	"mercator-hq/conduit/pkg/routing"
	"mercator-hq/conduit/pkg/server"
	"mercator-hq/conduit/pkg/telemetry/metrics"
	"mercator-hq/conduit/pkg/telemetry/tracing"
)

// tracerShutdownTimeout bounds the final span flush on exit.
const tracerShutdownTimeout = 5 * time.Second

type runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

func newRunCmd(global *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the conduit HTTP server",
		Long: `Start the conduit HTTP server with the specified configuration.

The server answers POST /v1/completions through the router and exposes
provider snapshots, health probes and Prometheus metrics. When watch.enabled
is set, edits to the config file build a new router and swap it in; a file
that fails to load or validate leaves the running router in place.

Examples:
  # Start with default config
  conduit run

  # Start with custom config
  conduit run --config /etc/conduit/conduit.yaml

  # Override listen address
  conduit run --listen 0.0.0.0:8080

  # Validate config and build the router without starting the server
  conduit run --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "build the router without starting the server")

	return cmd
}

func runServer(cmd *cobra.Command, global *globalFlags, flags *runFlags) error {
	cfg, err := loadConfig(global.cfgFile)
	if err != nil {
		return err
	}

	if flags.listenAddress != "" {
		cfg.Server.ListenAddress = flags.listenAddress
	}
	if flags.logLevel != "" {
		cfg.Telemetry.Logging.Level = flags.logLevel
	}

	logger, err := newLogger(cfg.Telemetry.Logging, global.verbose, os.Stderr)
	if err != nil {
		return cli.NewConfigError(global.cfgFile, err)
	}
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(cfg.Telemetry.Metrics, registry)

	out := cmd.OutOrStdout()
	if flags.dryRun {
		router, err := buildRouter(cfg, logger, routing.WithObserver(collector))
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		fmt.Fprintf(out, "✓ Configuration valid (%d providers, strategy %s)\n",
			len(router.Providers()), router.Strategy())
		return nil
	}

	tracer, err := tracing.New(cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError(global.cfgFile, err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	routerOpts := []routing.Option{
		routing.WithObserver(collector),
		routing.WithTracer(tracer.Tracer()),
	}
	router, err := buildRouter(cfg, logger, routerOpts...)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	srv := server.New(cfg.Server, router,
		server.WithLogger(logger),
		server.WithCollector(collector, cfg.Telemetry.Metrics.Path),
		server.WithTracer(tracer.Tracer()),
		server.WithVersion(Version, GitCommit, BuildDate),
	)
	if tracer.Enabled() {
		logger.Info("tracing enabled",
			"endpoint", cfg.Telemetry.Tracing.Endpoint,
			"sampler", cfg.Telemetry.Tracing.Sampler,
		)
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(gctx)
	})

	if cfg.Telemetry.Report.Enabled {
		reporter := report.NewReporter(cfg.Telemetry.Report.Schedule, srv.Router, logger)
		if err := reporter.Start(gctx); err != nil {
			stop()
			_ = g.Wait()
			return cli.NewConfigError(global.cfgFile, err)
		}
		defer reporter.Stop()
		if next := reporter.NextRun(); next != nil {
			logger.Debug("stats report scheduled", "next_run", next)
		}
	}

	if cfg.Watch.Enabled {
		watcher, err := config.NewWatcher(global.cfgFile, cfg.Watch.Debounce, logger)
		if err != nil {
			stop()
			_ = g.Wait()
			return cli.NewCommandError("run", err)
		}
		g.Go(func() error {
			return watcher.Watch(gctx, reloadRouter(srv, logger, routerOpts...))
		})
	}

	fmt.Fprintf(out, "conduit %s listening on %s\n", Version, cfg.Server.ListenAddress)

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// reloadRouter returns the watcher callback that builds a Router from a
// reloaded file and installs it. Server and telemetry settings only take
// effect on restart.
func reloadRouter(srv *server.Server, logger *slog.Logger, opts ...routing.Option) func(*config.Config) error {
	return func(cfg *config.Config) error {
		if err := resolveSecrets(context.Background(), cfg, logger); err != nil {
			return err
		}
		router, err := buildRouter(cfg, logger, opts...)
		if err != nil {
			return fmt.Errorf("failed to build router: %w", err)
		}
		srv.SetRouter(router)
		return nil
	}
}
