package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/conduit/pkg/cli"
	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/routing"
)

type completeFlags struct {
	prompt    string
	model     string
	preferred []string
	params    map[string]string
	timeout   time.Duration
	format    string
}

// completionResult renders a routed response.
type completionResult struct {
	*providers.Response
}

func (r completionResult) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintln(w, r.Text); err != nil {
		return err
	}
	cost := ""
	if usd, ok := r.Metadata[routing.MetaCostUSD].(float64); ok {
		cost = fmt.Sprintf(", cost $%.6f", usd)
	}
	_, err := fmt.Fprintf(w, "\n(provider %s, model %s, attempts %v, latency %vms%s)\n",
		r.Provider, r.Model, r.Metadata[routing.MetaAttempts], r.Metadata[routing.MetaLatencyMS], cost)
	return err
}

func newCompleteCmd(global *globalFlags) *cobra.Command {
	flags := &completeFlags{}

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Route a single completion request",
		Long: `Build a router from the configuration and route one request through it.

Examples:
  # Route to any provider serving gpt-4
  conduit complete --model gpt-4 --prompt "Summarize this"

  # Try a specific provider first
  conduit complete --model gpt-4 --prompt "Hi" --provider openai-primary

  # Pass provider parameters and print the full response as JSON
  conduit complete --model gpt-4 --prompt "Hi" --param temperature=0.2 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.prompt, "prompt", "p", "", "prompt text")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "model name (defaults to router.default_model)")
	cmd.Flags().StringSliceVar(&flags.preferred, "provider", nil, "preferred provider, repeatable")
	cmd.Flags().StringToStringVar(&flags.params, "param", nil, "provider parameter as key=value, repeatable")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 2*time.Minute, "overall request timeout")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func runComplete(cmd *cobra.Command, global *globalFlags, flags *completeFlags) error {
	format, err := cli.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(global.cfgFile)
	if err != nil {
		return err
	}

	// Only warnings reach the terminal unless --verbose is set.
	logCfg := cfg.Telemetry.Logging
	logCfg.Level = "warn"
	logCfg.Format = "text"
	logger, err := newLogger(logCfg, global.verbose, cmd.ErrOrStderr())
	if err != nil {
		return cli.NewConfigError(global.cfgFile, err)
	}

	router, err := buildRouter(cfg, logger)
	if err != nil {
		return cli.NewCommandError("complete", err)
	}

	req := &providers.Request{
		Prompt: flags.prompt,
		Model:  flags.model,
	}
	if len(flags.params) > 0 {
		req.Parameters = make(map[string]any, len(flags.params))
		for k, v := range flags.params {
			req.Parameters[k] = v
		}
	}

	var opts []routing.ExecuteOption
	if len(flags.preferred) > 0 {
		opts = append(opts, routing.WithPreferredProviders(flags.preferred...))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, flags.timeout)
	defer cancel()

	resp, err := router.Execute(ctx, req, opts...)
	if err != nil {
		return cli.NewCommandError("complete", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), completionResult{resp})
}
