package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/conduit/pkg/cli"
	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/routing"
	"mercator-hq/conduit/pkg/security/secrets"
	"mercator-hq/conduit/pkg/telemetry/logging"
)

// loadConfig reads, overrides from the environment and validates the file
// at path, then resolves its secret references.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	if err := resolveSecrets(context.Background(), cfg, slog.Default()); err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	return cfg, nil
}

// resolveSecrets replaces ${secret:name} references in cfg with their values.
func resolveSecrets(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	mgr, err := secrets.FromConfig(cfg.Secrets, logger)
	if err != nil {
		return fmt.Errorf("failed to configure secrets: %w", err)
	}
	if err := mgr.ResolveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to resolve secrets: %w", err)
	}
	return nil
}

// newLogger builds the process logger from the logging section. verbose
// forces debug level.
func newLogger(cfg config.LoggingConfig, verbose bool, w io.Writer) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg)
	lc.Writer = w
	if verbose {
		lc.Level = "debug"
	}
	return logging.New(lc)
}

// buildRouter constructs a Router for cfg.
func buildRouter(cfg *config.Config, logger *slog.Logger, opts ...routing.Option) (*routing.Router, error) {
	all := append([]routing.Option{routing.WithLogger(logger.With("component", "routing"))}, opts...)
	return routing.New(cfg, all...)
}
