package main

import (
	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "conduit",
		Short: "Conduit - resilient LLM request routing",
		Long: `Conduit routes completion requests across a pool of LLM providers.

Each request is matched to the providers that serve its model, ordered by the
configured strategy (round_robin or cost_priority_round_robin), and sent to
the first provider whose circuit is closed and whose rate limit has room.
Failed calls are retried with exponential backoff on the same provider.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.cfgFile, "config", "c", "conduit.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newRunCmd(flags),
		newCompleteCmd(flags),
		newValidateCmd(flags),
		newKeysCmd(),
		newCertsCmd(),
		newVersionCmd(),
		newCompletionCmd(cmd),
	)

	return cmd
}
