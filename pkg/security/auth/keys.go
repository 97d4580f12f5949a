package auth

import (
	"crypto/sha256"
	"errors"

	"mercator-hq/conduit/pkg/config"
)

var (
	// ErrMissingKey is returned when a request carries no API key.
	ErrMissingKey = errors.New("missing API key")

	// ErrInvalidKey is returned for a key that is not configured.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrKeyDisabled is returned for a configured key that has been revoked.
	ErrKeyDisabled = errors.New("API key disabled")
)

// Identity is the authenticated caller.
type Identity struct {
	// Name is the configured name of the key.
	Name string
}

type keyEntry struct {
	name    string
	enabled bool
}

// KeySet validates API keys against the configured set. Keys are stored by
// SHA-256 digest so the plaintext is not retained. A KeySet is read-only
// after construction and safe for concurrent use.
type KeySet struct {
	keys map[[sha256.Size]byte]keyEntry
}

// NewKeySet builds a key set from configuration.
func NewKeySet(keys []config.APIKeyConfig) *KeySet {
	s := &KeySet{keys: make(map[[sha256.Size]byte]keyEntry, len(keys))}
	for _, k := range keys {
		if k.Key == "" {
			continue
		}
		s.keys[sha256.Sum256([]byte(k.Key))] = keyEntry{name: k.Name, enabled: k.IsEnabled()}
	}
	return s
}

// Validate returns the identity owning key.
func (s *KeySet) Validate(key string) (Identity, error) {
	if key == "" {
		return Identity{}, ErrMissingKey
	}

	entry, ok := s.keys[sha256.Sum256([]byte(key))]
	if !ok {
		return Identity{}, ErrInvalidKey
	}
	if !entry.enabled {
		return Identity{Name: entry.name}, ErrKeyDisabled
	}
	return Identity{Name: entry.name}, nil
}

// Len returns the number of configured keys.
func (s *KeySet) Len() int {
	return len(s.keys)
}
