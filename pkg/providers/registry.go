package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownType is returned by Registry.Build when no factory is registered
// for a provider type.
var ErrUnknownType = errors.New("unknown provider type")

// Factory builds a Handler for one configured provider.
type Factory func(config ProviderConfig) (Handler, error)

// Registry maps provider types to built-in integration factories.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for a provider type.
// Types are matched case-insensitively.
func (r *Registry) Register(providerType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalizeType(providerType)] = f
}

// Has reports whether a factory is registered for the provider type.
func (r *Registry) Has(providerType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalizeType(providerType)]
	return ok
}

// Types returns the registered provider types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build constructs the handler for config.Type.
// It returns an error wrapping ErrUnknownType when the type is not registered.
func (r *Registry) Build(config ProviderConfig) (Handler, error) {
	r.mu.RLock()
	f, ok := r.factories[normalizeType(config.Type)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (provider %q)", ErrUnknownType, config.Type, config.Name)
	}

	h, err := f(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider %q: %w", config.Type, config.Name, err)
	}
	return h, nil
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
