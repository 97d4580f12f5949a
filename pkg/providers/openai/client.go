package openai

import (
	"context"
	"log/slog"
	"strings"

	"mercator-hq/conduit/pkg/providers"
)

// DefaultBaseURL is the OpenAI API endpoint used when none is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider is the OpenAI chat completions integration. With type "generic"
// it talks to any OpenAI-compatible endpoint (Ollama, vLLM, LM Studio).
type Provider struct {
	*providers.HTTPClient
}

// NewProvider creates a new OpenAI-compatible provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	generic := strings.EqualFold(config.Type, "generic")

	if config.BaseURL == "" {
		if generic {
			return nil, &providers.ConfigError{
				Provider: config.Name,
				Field:    "base_url",
				Message:  "base URL is required for generic providers",
			}
		}
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.APIKey == "" && !generic {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for OpenAI",
		}
	}

	p := &Provider{HTTPClient: providers.NewHTTPClient(config)}

	slog.Info("OpenAI provider initialized",
		"provider", config.Name,
		"type", config.Type,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// New builds a providers.Handler for config. It is registered as the factory
// for the "openai" and "generic" types.
func New(config providers.ProviderConfig) (providers.Handler, error) {
	p, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return p.Complete, nil
}

// Complete sends a chat completion request.
func (p *Provider) Complete(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	cfg := p.Config()

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}

	var openaiResp OpenAIResponse
	if err := p.DoJSONRequest(ctx, "POST", cfg.BaseURL+"/chat/completions", transformRequest(req), &openaiResp, headers); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&openaiResp)
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
