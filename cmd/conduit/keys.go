package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/security/secrets"
)

const (
	defaultKeyPrefix = "sk-conduit-"
	defaultKeyBytes  = 32
)

type keysGenerateFlags struct {
	name      string
	prefix    string
	bytes     int
	secretDir string
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys for the HTTP server",
		Long: `Manage the API keys accepted by the HTTP server when server.auth is
enabled.

Subcommands:
  generate - Generate a new random API key`,
	}
	cmd.AddCommand(newKeysGenerateCmd())
	return cmd
}

func newKeysGenerateCmd() *cobra.Command {
	flags := &keysGenerateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new API key",
		Long: `Generate a random API key and print the configuration that accepts it.

With --secret-dir the key is written to <dir>/<name> with mode 0600 so the
file secret provider can serve it; otherwise export it through the printed
environment variable.

Examples:
  # Print a key for the "ci" client
  conduit keys generate --name ci

  # Store the key for a mounted secrets directory
  conduit keys generate --name ci --secret-dir /var/run/secrets/conduit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysGenerate(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "default", "key name, also used as the secret name")
	cmd.Flags().StringVar(&flags.prefix, "prefix", defaultKeyPrefix, "prefix prepended to the random part")
	cmd.Flags().IntVar(&flags.bytes, "bytes", defaultKeyBytes, "random bytes in the key (at least 16)")
	cmd.Flags().StringVar(&flags.secretDir, "secret-dir", "", "write the key into this secrets directory")

	return cmd
}

func runKeysGenerate(cmd *cobra.Command, flags *keysGenerateFlags) error {
	if flags.name == "" || flags.name != filepath.Base(flags.name) {
		return fmt.Errorf("invalid key name %q", flags.name)
	}

	key, err := generateAPIKey(flags.prefix, flags.bytes)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ref := fmt.Sprintf("${secret:%s}", flags.name)

	if flags.secretDir != "" {
		if err := writeSecretFile(flags.secretDir, flags.name, key); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Key written to %s\n\n", filepath.Join(flags.secretDir, flags.name))
		fmt.Fprintln(out, "Configuration snippet:")
		fmt.Fprintln(out, "secrets:")
		fmt.Fprintf(out, "  directory: %q\n", flags.secretDir)
	} else {
		envVar := secrets.NewEnvProvider(config.DefaultSecretsEnvPrefix).EnvVar(flags.name)
		fmt.Fprintf(out, "%s\n\n", key)
		fmt.Fprintln(out, "Export the key for the server:")
		fmt.Fprintf(out, "  export %s=%s\n\n", envVar, key)
		fmt.Fprintln(out, "Configuration snippet:")
	}

	fmt.Fprintln(out, "server:")
	fmt.Fprintln(out, "  auth:")
	fmt.Fprintln(out, "    enabled: true")
	fmt.Fprintln(out, "    keys:")
	fmt.Fprintf(out, "      - name: %s\n", flags.name)
	fmt.Fprintf(out, "        key: %s\n", ref)
	return nil
}

// generateAPIKey returns prefix followed by n random bytes in unpadded
// URL-safe base64.
func generateAPIKey(prefix string, n int) (string, error) {
	if n < 16 {
		return "", fmt.Errorf("key must have at least 16 random bytes, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// writeSecretFile stores value as dir/name with mode 0600 and reads it back
// through the file secret provider.
func writeSecretFile(dir, name, value string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}

	path := filepath.Join(dir, name)
	// #nosec G304 - user-specified output path is expected for a CLI tool
	if err := os.WriteFile(path, []byte(value+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict secret permissions: %w", err)
	}

	fp, err := secrets.NewFileProvider(dir)
	if err != nil {
		return err
	}
	got, err := fp.Get(context.Background(), name)
	if err != nil {
		return fmt.Errorf("secret not readable after write: %w", err)
	}
	if got != value {
		return fmt.Errorf("secret %s does not round-trip", path)
	}
	return nil
}
