package strategies

import (
	"slices"
)

// RoundRobinStrategy distributes load by least-recent use.
//
// Candidates are ordered by ascending LastUsedAt, so a provider that has
// never been selected sorts first. Because the router stamps LastUsedAt on
// every selection, consecutive calls rotate through equally healthy
// providers without a shared cursor, and a provider skipped by a gate keeps
// its place at the front of the queue.
type RoundRobinStrategy struct{}

// NewRoundRobinStrategy creates a new round-robin strategy.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Order returns candidates sorted by ascending LastUsedAt, stable by input order.
func (s *RoundRobinStrategy) Order(candidates []Candidate) []string {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return a.LastUsedAt.Compare(b.LastUsedAt)
	})
	return names(sorted)
}

// Name returns the strategy name.
func (s *RoundRobinStrategy) Name() string {
	return RoundRobin
}
