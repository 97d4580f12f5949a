/*
Package cli provides helpers shared by the conduit commands.

Output Formatting:

Commands print results as text or JSON:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Results that need a custom text layout implement TextWriter.

Errors:

ConfigError and CommandError carry the failing config path or command, and
ExitCode maps them to process exit codes.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
