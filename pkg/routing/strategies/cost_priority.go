package strategies

import (
	"cmp"
	"math"
	"slices"
)

// CostPriorityStrategy prefers the cheapest provider, with priority acting
// as a cost multiplier.
//
// The score of a candidate is its average per-1K token cost divided by the
// inverse of its priority:
//
//	score = ((CostPer1KInput + CostPer1KOutput) / 2) / (1 / priority)
//
// Lower scores win. A candidate without a ModelSpec for the requested model
// scores +Inf and sorts last.
type CostPriorityStrategy struct{}

// NewCostPriorityStrategy creates a new cost-priority strategy.
func NewCostPriorityStrategy() *CostPriorityStrategy {
	return &CostPriorityStrategy{}
}

// Order returns candidates sorted by ascending score, stable by input order.
func (s *CostPriorityStrategy) Order(candidates []Candidate) []string {
	type scored struct {
		name  string
		score float64
	}

	list := make([]scored, len(candidates))
	for i, c := range candidates {
		list[i] = scored{name: c.Name, score: Score(c)}
	}

	slices.SortStableFunc(list, func(a, b scored) int {
		return cmp.Compare(a.score, b.score)
	})

	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.name
	}
	return out
}

// Name returns the strategy name.
func (s *CostPriorityStrategy) Name() string {
	return CostPriority
}

// Score computes the cost-priority score of a candidate.
// Priorities of zero or below count as 1.
func Score(c Candidate) float64 {
	if c.Model == nil {
		return math.Inf(1)
	}

	priority := c.Priority
	if priority <= 0 {
		priority = 1
	}

	return c.Model.AverageCost() / (1 / float64(priority))
}
