package anthropic

import (
	"context"
	"log/slog"
	"strings"

	"mercator-hq/conduit/pkg/providers"
)

const (
	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"

	// DefaultBaseURL is the Anthropic API endpoint used when none is configured.
	DefaultBaseURL = "https://api.anthropic.com"
)

// Provider is the Anthropic Messages API integration.
type Provider struct {
	*providers.HTTPClient
}

// NewProvider creates a new Anthropic provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}

	p := &Provider{HTTPClient: providers.NewHTTPClient(config)}

	slog.Info("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// New builds a providers.Handler for config. It is registered as the factory
// for the "anthropic" type.
func New(config providers.ProviderConfig) (providers.Handler, error) {
	p, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return p.Complete, nil
}

// Complete sends a messages request to Anthropic.
func (p *Provider) Complete(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	cfg := p.Config()

	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": DefaultAnthropicVersion,
		"Content-Type":      "application/json",
	}

	var anthropicResp AnthropicResponse
	if err := p.DoJSONRequest(ctx, "POST", cfg.BaseURL+"/v1/messages", transformRequest(req), &anthropicResp, headers); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&anthropicResp)
	if err != nil {
		return nil, &providers.ParseError{
			Provider: cfg.Name,
			Cause:    err,
		}
	}
	resp.Provider = cfg.Name

	slog.Debug("completion request succeeded",
		"provider", cfg.Name,
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
	)

	return resp, nil
}
