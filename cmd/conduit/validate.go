package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/conduit/pkg/cli"
	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/providerfactory"
)

// validateResult summarizes a configuration that loaded and built a router.
type validateResult struct {
	Path      string             `json:"path"`
	Valid     bool               `json:"valid"`
	Errors    []string           `json:"errors,omitempty"`
	Strategy  string             `json:"strategy,omitempty"`
	Providers []validateProvider `json:"providers,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
}

type validateProvider struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Enabled  bool     `json:"enabled"`
	Priority int      `json:"priority"`
	Models   []string `json:"models"`
}

func (r validateResult) WriteText(w io.Writer) error {
	if !r.Valid {
		fmt.Fprintf(w, "✗ %s is invalid:\n", r.Path)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
		return nil
	}

	fmt.Fprintf(w, "✓ %s is valid (strategy %s)\n\n", r.Path, r.Strategy)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tTYPE\tENABLED\tPRIORITY\tMODELS")
	for _, p := range r.Providers {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\n", p.Name, p.Type, p.Enabled, p.Priority, strings.Join(p.Models, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "\n! %s", warning)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
	}
	return nil
}

func newValidateCmd(global *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Load and validate a configuration file, then build a router from it.

Validation covers every section of the file. Providers whose type has no
built-in integration are reported as warnings: they load, but calls routed to
them fail until a handler is registered in code.

Examples:
  conduit validate --config conduit.yaml
  conduit validate --config conduit.yaml --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, global, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")

	return cmd
}

func runValidate(cmd *cobra.Command, global *globalFlags, flag string) error {
	format, err := cli.ParseFormat(flag)
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(format)
	out := cmd.OutOrStdout()

	result := validateResult{Path: global.cfgFile}

	cfg, err := loadConfig(global.cfgFile)
	if err != nil {
		var cfgErr *cli.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.FieldErrors() != nil {
			for _, fe := range cfgErr.FieldErrors() {
				result.Errors = append(result.Errors, fe.Error())
			}
		} else {
			result.Errors = []string{err.Error()}
		}
		if ferr := formatter.FormatTo(out, result); ferr != nil {
			return ferr
		}
		return err
	}

	logger, err := newLogger(config.LoggingConfig{Level: "error", Format: "text"}, false, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	router, err := buildRouter(cfg, logger)
	if err != nil {
		result.Errors = []string{err.Error()}
		if ferr := formatter.FormatTo(out, result); ferr != nil {
			return ferr
		}
		return cli.NewConfigError(global.cfgFile, err)
	}

	registry := providerfactory.DefaultRegistry()
	result.Valid = true
	result.Strategy = router.Strategy()
	for _, snap := range router.Snapshots() {
		result.Providers = append(result.Providers, validateProvider{
			Name:     snap.Name,
			Type:     snap.Type,
			Enabled:  snap.Enabled,
			Priority: snap.Priority,
			Models:   snap.Models,
		})
		if !registry.Has(snap.Type) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("provider %q: no built-in integration for type %q", snap.Name, snap.Type))
		}
	}

	return formatter.FormatTo(out, result)
}
