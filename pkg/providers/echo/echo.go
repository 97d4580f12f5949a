// Package echo implements a local integration that answers with the prompt.
//
// It makes no network calls, which makes it useful for smoke tests and for
// exercising routing and resilience settings without a real backend.
package echo

import (
	"context"
	"strings"

	"mercator-hq/conduit/pkg/providers"
)

// New builds the echo handler. It is registered as the factory for the
// "echo" type and accepts any configuration with a name.
func New(config providers.ProviderConfig) (providers.Handler, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "echo",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	name := config.Name
	return func(ctx context.Context, req *providers.Request) (*providers.Response, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Whitespace-separated words stand in for tokens.
		tokens := len(strings.Fields(req.Prompt))
		return &providers.Response{
			Text:     req.Prompt,
			Model:    req.Model,
			Provider: name,
			Usage: &providers.TokenUsage{
				PromptTokens:     tokens,
				CompletionTokens: tokens,
				TotalTokens:      2 * tokens,
			},
		}, nil
	}, nil
}
