package routing

import (
	"errors"
	"fmt"
	"strings"
)

// Construction errors. New fails with one of these and no Router is built.
var (
	// ErrNoProvidersConfigured is returned when the configuration lists no providers.
	ErrNoProvidersConfigured = errors.New("no providers configured")

	// ErrNoProvidersConstructed is returned when every configured provider
	// was skipped during construction.
	ErrNoProvidersConstructed = errors.New("no providers could be constructed")

	// ErrNoModels is returned when a provider declares no models.
	ErrNoModels = errors.New("provider declares no models")

	// ErrDuplicateProvider is returned when two providers share a name.
	ErrDuplicateProvider = errors.New("duplicate provider name")
)

// Routing errors returned by Execute. The router stays usable after any of them.
var (
	// ErrModelRequired is returned when neither the request nor the router
	// configuration names a model.
	ErrModelRequired = errors.New("model is required")

	// ErrNoProviderForModel is returned when no enabled provider declares the
	// requested model.
	ErrNoProviderForModel = errors.New("no provider for model")

	// ErrNoAvailableProviders is returned when every candidate is breaker-open
	// or rate-saturated.
	ErrNoAvailableProviders = errors.New("no available providers")

	// ErrProviderNotFound is returned by administrative calls naming an
	// unknown provider.
	ErrProviderNotFound = errors.New("provider not found")
)

// NoProviderForModelError is returned when no enabled provider serves the
// requested model.
type NoProviderForModelError struct {
	// Model is the requested model.
	Model string

	// AvailableModels contains the models enabled providers do serve.
	AvailableModels []string
}

// Error implements the error interface.
func (e *NoProviderForModelError) Error() string {
	if len(e.AvailableModels) == 0 {
		return fmt.Sprintf("no provider for model %q", e.Model)
	}
	return fmt.Sprintf("no provider for model %q (available models: %s)",
		e.Model, strings.Join(e.AvailableModels, ", "))
}

// Is implements error matching for errors.Is().
func (e *NoProviderForModelError) Is(target error) bool {
	return target == ErrNoProviderForModel
}

// NoAvailableProvidersError is returned when candidates exist for the model
// but none could be admitted.
type NoAvailableProvidersError struct {
	// Model is the requested model.
	Model string

	// CircuitOpen lists candidates skipped because their breaker was open.
	CircuitOpen []string

	// Saturated lists candidates skipped because their limiter was full.
	Saturated []string
}

// Error implements the error interface.
func (e *NoAvailableProvidersError) Error() string {
	var parts []string
	if len(e.CircuitOpen) > 0 {
		parts = append(parts, "circuit open: "+strings.Join(e.CircuitOpen, ", "))
	}
	if len(e.Saturated) > 0 {
		parts = append(parts, "saturated: "+strings.Join(e.Saturated, ", "))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("no available providers for model %q", e.Model)
	}
	return fmt.Sprintf("no available providers for model %q (%s)", e.Model, strings.Join(parts, "; "))
}

// Is implements error matching for errors.Is().
func (e *NoAvailableProvidersError) Is(target error) bool {
	return target == ErrNoAvailableProviders
}

// ProviderNotFoundError is returned when a named provider does not exist.
type ProviderNotFoundError struct {
	// ProviderName is the requested provider that was not found.
	ProviderName string
}

// Error implements the error interface.
func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("provider %q not found", e.ProviderName)
}

// Is implements error matching for errors.Is().
func (e *ProviderNotFoundError) Is(target error) bool {
	return target == ErrProviderNotFound
}
