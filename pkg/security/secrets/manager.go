package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"mercator-hq/conduit/pkg/config"
)

// maxCached bounds the number of cached secret values.
const maxCached = 256

var referencePattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager resolves secrets from an ordered list of providers. The first
// provider holding a secret wins. Values are cached for the configured TTL.
type Manager struct {
	providers []Provider
	cache     *expirable.LRU[string, string]
	group     singleflight.Group
	logger    *slog.Logger
}

// NewManager creates a manager over providers. A zero ttl disables caching.
func NewManager(providers []Provider, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		providers: providers,
		logger:    logger.With("component", "secrets"),
	}
	if ttl > 0 {
		m.cache = expirable.NewLRU[string, string](maxCached, nil, ttl)
	}
	return m
}

// FromConfig builds the manager described by cfg. The file provider, when a
// directory is configured, is consulted before the environment.
func FromConfig(cfg config.SecretsConfig, logger *slog.Logger) (*Manager, error) {
	var providers []Provider
	if cfg.Directory != "" {
		fp, err := NewFileProvider(cfg.Directory)
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))

	return NewManager(providers, cfg.CacheTTL, logger), nil
}

// Get returns the named secret. Concurrent lookups of the same name share
// one provider call.
func (m *Manager) Get(ctx context.Context, name string) (string, error) {
	if m.cache != nil {
		if value, ok := m.cache.Get(name); ok {
			return value, nil
		}
	}

	v, err, _ := m.group.Do(name, func() (any, error) {
		return m.lookup(ctx, name)
	})
	if err != nil {
		return "", err
	}

	value := v.(string)
	if m.cache != nil {
		m.cache.Add(name, value)
	}
	return value, nil
}

func (m *Manager) lookup(ctx context.Context, name string) (string, error) {
	var errs []error
	for _, p := range m.providers {
		value, err := p.Get(ctx, name)
		if err == nil {
			m.logger.Debug("secret resolved", "name", name, "provider", p.Name())
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("secret provider failed", "name", name, "provider", p.Name(), "error", err)
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: %s (no providers configured)", ErrNotFound, name)
	}
	return "", errors.Join(errs...)
}

// Resolve replaces every ${secret:name} reference in s. All references are
// attempted and the failures are joined.
func (m *Manager) Resolve(ctx context.Context, s string) (string, error) {
	if !HasReference(s) {
		return s, nil
	}

	var errs []error
	out := referencePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := referencePattern.FindStringSubmatch(match)[1]
		value, err := m.Get(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("secret %q: %w", name, err))
			return match
		}
		return value
	})
	return out, errors.Join(errs...)
}

// ResolveConfig resolves references in provider API keys and server auth
// keys in place.
func (m *Manager) ResolveConfig(ctx context.Context, cfg *config.Config) error {
	var errs []error

	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		value, err := m.Resolve(ctx, p.APIKey)
		if err != nil {
			errs = append(errs, fmt.Errorf("providers[%d].api_key: %w", i, err))
			continue
		}
		p.APIKey = value
	}

	for i := range cfg.Server.Auth.Keys {
		k := &cfg.Server.Auth.Keys[i]
		value, err := m.Resolve(ctx, k.Key)
		if err != nil {
			errs = append(errs, fmt.Errorf("server.auth.keys[%d].key: %w", i, err))
			continue
		}
		k.Key = value
	}

	return errors.Join(errs...)
}

// Purge drops every cached value.
func (m *Manager) Purge() {
	if m.cache != nil {
		m.cache.Purge()
	}
}

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return referencePattern.MatchString(s)
}
