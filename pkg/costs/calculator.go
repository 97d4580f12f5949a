package costs

import (
	"strings"

	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/providers"
)

// Pricing is the price of one model on one provider, in USD per 1K tokens.
type Pricing struct {
	// Input is the cost per 1000 prompt tokens.
	Input float64 `json:"input"`

	// Output is the cost per 1000 completion tokens.
	Output float64 `json:"output"`
}

// Estimate is the cost of one completed call in USD.
type Estimate struct {
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	PromptCost     float64 `json:"prompt_cost"`
	CompletionCost float64 `json:"completion_cost"`
	TotalCost      float64 `json:"total_cost"`
}

// Calculator prices token usage with the per-model costs declared on each
// provider. It is read-only after construction and safe for concurrent use.
type Calculator struct {
	pricing map[string]map[string]Pricing
}

// NewCalculator builds a calculator from provider declarations.
func NewCalculator(provs []config.ProviderConfig) *Calculator {
	c := &Calculator{pricing: make(map[string]map[string]Pricing, len(provs))}
	for _, pc := range provs {
		models := make(map[string]Pricing, len(pc.Models))
		for _, m := range pc.Models {
			models[m.Name] = Pricing{Input: m.CostPer1KInput, Output: m.CostPer1KOutput}
		}
		c.pricing[pc.Name] = models
	}
	return c
}

// Pricing returns the pricing of model on provider. An exact model match
// wins; otherwise the longest declared model name that prefixes model is
// used, so "gpt-4" prices a backend that answers as "gpt-4-0613".
func (c *Calculator) Pricing(provider, model string) (Pricing, bool) {
	models, ok := c.pricing[provider]
	if !ok {
		return Pricing{}, false
	}
	if p, ok := models[model]; ok {
		return p, true
	}

	var (
		best    Pricing
		bestLen int
	)
	for name, p := range models {
		if len(name) > bestLen && strings.HasPrefix(model, name) {
			best, bestLen = p, len(name)
		}
	}
	return best, bestLen > 0
}

// Cost prices usage for model on provider. It reports false when usage is
// nil or the model has no pricing.
func (c *Calculator) Cost(provider, model string, usage *providers.TokenUsage) (Estimate, bool) {
	if usage == nil {
		return Estimate{}, false
	}
	pricing, ok := c.Pricing(provider, model)
	if !ok {
		return Estimate{}, false
	}

	est := Estimate{
		Provider:       provider,
		Model:          model,
		PromptCost:     calculateTokenCost(usage.PromptTokens, pricing.Input),
		CompletionCost: calculateTokenCost(usage.CompletionTokens, pricing.Output),
	}
	est.TotalCost = est.PromptCost + est.CompletionCost
	return est, true
}

// calculateTokenCost calculates the cost for a given number of tokens.
// costPer1K is the cost per 1000 tokens in USD.
func calculateTokenCost(tokens int, costPer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}

	return (float64(tokens) / 1000.0) * costPer1K
}
