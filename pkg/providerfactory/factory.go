// Package providerfactory wires the built-in integrations into a
// providers.Registry keyed by provider type.
package providerfactory

import (
	"log/slog"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/providers/anthropic"
	"mercator-hq/conduit/pkg/providers/echo"
	"mercator-hq/conduit/pkg/providers/openai"
)

// Built-in provider types.
const (
	TypeOpenAI    = "openai"
	TypeGeneric   = "generic"
	TypeAnthropic = "anthropic"
	TypeEcho      = "echo"
)

// DefaultRegistry returns a registry holding every built-in integration:
//   - "openai": OpenAI API
//   - "generic": OpenAI-compatible APIs (Ollama, LM Studio, vLLM, etc.)
//   - "anthropic": Anthropic Messages API
//   - "echo": local echo backend
func DefaultRegistry() *providers.Registry {
	reg := providers.NewRegistry()
	reg.Register(TypeOpenAI, openai.New)
	reg.Register(TypeGeneric, openai.New)
	reg.Register(TypeAnthropic, anthropic.New)
	reg.Register(TypeEcho, echo.New)
	return reg
}

// NewHandler builds the built-in handler for config.
//
// When config.Type is empty it is inferred from the provider name:
//   - "openai" -> openai
//   - "anthropic" -> anthropic
//   - "echo" -> echo
//   - Everything else -> generic
func NewHandler(config providers.ProviderConfig) (providers.Handler, error) {
	if config.Type == "" {
		config.Type = inferProviderType(config.Name)
	}

	slog.Debug("creating provider handler",
		"name", config.Name,
		"type", config.Type,
		"base_url", config.BaseURL,
	)

	return DefaultRegistry().Build(config)
}

// inferProviderType infers the provider type from the provider name.
func inferProviderType(name string) string {
	switch name {
	case "openai":
		return TypeOpenAI
	case "anthropic":
		return TypeAnthropic
	case "echo":
		return TypeEcho
	default:
		return TypeGeneric
	}
}
