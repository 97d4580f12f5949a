// Conduit routes completion requests across a pool of LLM providers.
//
// It picks a provider per request with a load-balancing strategy and wraps
// every call in a per-provider rate limiter, circuit breaker and retry policy.
//
// Usage:
//
//	# Start the HTTP server
//	conduit run --config conduit.yaml
//
//	# Route a single request and print the response
//	conduit complete --model gpt-4 --prompt "Hello"
//
//	# Check a configuration file
//	conduit validate --config conduit.yaml
//
//	# Show version information
//	conduit version
package main

import (
	"fmt"
	"os"

	"mercator-hq/conduit/pkg/cli"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
