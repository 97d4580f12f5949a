package strategies

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mercator-hq/conduit/pkg/providers"
)

// Strategy names as they appear in configuration.
const (
	RoundRobin   = "round_robin"
	CostPriority = "cost_priority_round_robin"
)

// ErrUnknownStrategy is returned by New for an unrecognised strategy name.
var ErrUnknownStrategy = errors.New("unknown load balancing strategy")

// Candidate is a read-only view of one provider that may serve a request.
// Candidates are already filtered to enabled providers that declare the
// requested model.
type Candidate struct {
	// Name is the provider name
	Name string

	// Priority is the operator-assigned weight; lower is preferred
	Priority int

	// LastUsedAt is when the provider was last selected (zero if never)
	LastUsedAt time.Time

	// Model is the provider's ModelSpec for the requested model, nil if none
	Model *providers.ModelSpec
}

// Strategy orders candidate providers, most preferred first.
//
// Order must be a pure function of its input: no side effects, and ties
// are broken by input order so results are deterministic. Implementations
// are therefore safe for concurrent use.
type Strategy interface {
	// Name returns the canonical strategy name for logging and statistics.
	Name() string

	// Order returns the candidate names in preference order.
	Order(candidates []Candidate) []string
}

// New returns the strategy registered under name.
//
// Accepted names are round_robin (alias round-robin) and
// cost_priority_round_robin (aliases cost_priority, cost-priority).
// An empty name selects round_robin.
func New(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RoundRobin, "round-robin":
		return NewRoundRobinStrategy(), nil
	case CostPriority, "cost_priority", "cost-priority":
		return NewCostPriorityStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

func names(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Name
	}
	return out
}
