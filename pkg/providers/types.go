package providers

import (
	"context"
	"encoding/json"
	"time"
)

// Handler fulfils a single inference request against one backend.
//
// A Handler fails by returning an error; the router observes that error as a
// failure outcome for retries and circuit breaking, and hands it back to the
// caller unchanged once retries are exhausted.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Request is a provider-agnostic inference request.
//
// Only Model is interpreted by the router. Prompt and Parameters are passed
// through to the handler untouched.
type Request struct {
	// Prompt is the input text.
	Prompt string

	// Model is the requested model. Empty means "use the router default".
	Model string

	// Parameters holds free-form generation parameters (temperature,
	// max_tokens, ...). On the wire they sit next to prompt and model.
	Parameters map[string]any

	// Metadata carries internal request context (request id, caller).
	// It is never serialized.
	Metadata map[string]string
}

// MarshalJSON flattens Parameters next to prompt and model.
func (r Request) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Parameters)+2)
	for k, v := range r.Parameters {
		out[k] = v
	}
	out["prompt"] = r.Prompt
	if r.Model != "" {
		out["model"] = r.Model
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads prompt and model and collects every other key into
// Parameters.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Request{}
	if v, ok := raw["prompt"].(string); ok {
		r.Prompt = v
	}
	if v, ok := raw["model"].(string); ok {
		r.Model = v
	}
	delete(raw, "prompt")
	delete(raw, "model")
	if len(raw) > 0 {
		r.Parameters = raw
	}
	return nil
}

// Float returns a numeric generation parameter.
func (r *Request) Float(key string) (float64, bool) {
	switch v := r.Parameters[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int returns an integral generation parameter.
func (r *Request) Int(key string) (int, bool) {
	f, ok := r.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Clone returns a shallow copy with its own Parameters and Metadata maps.
func (r *Request) Clone() *Request {
	c := *r
	if r.Parameters != nil {
		c.Parameters = make(map[string]any, len(r.Parameters))
		for k, v := range r.Parameters {
			c.Parameters[k] = v
		}
	}
	if r.Metadata != nil {
		c.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Response is a provider-agnostic inference response.
type Response struct {
	// Text is the generated output.
	Text string `json:"text"`

	// Model is the model that produced the output.
	Model string `json:"model"`

	// Provider is the name of the provider that served the request.
	Provider string `json:"provider"`

	// Usage reports token consumption when the backend provides it.
	Usage *TokenUsage `json:"usage,omitempty"`

	// Metadata carries additional response context.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used (prompt + completion)
	TotalTokens int `json:"total_tokens"`
}

// ModelSpec describes one model a provider serves and what it costs.
// It is immutable once loaded.
type ModelSpec struct {
	// Name is the model identifier (e.g., "gpt-4o", "claude-3-5-sonnet").
	Name string `json:"name"`

	// CostPer1KInput is the price of 1000 prompt tokens.
	CostPer1KInput float64 `json:"cost_per_1k_input"`

	// CostPer1KOutput is the price of 1000 completion tokens.
	CostPer1KOutput float64 `json:"cost_per_1k_output"`

	// MaxTokens is the model's token budget.
	MaxTokens int `json:"max_tokens"`
}

// AverageCost returns the mean of the input and output price per 1K tokens.
func (m ModelSpec) AverageCost() float64 {
	return (m.CostPer1KInput + m.CostPer1KOutput) / 2
}

// ProviderConfig contains what a built-in integration needs to talk to its
// backend. It is derived from the provider's configuration entry.
type ProviderConfig struct {
	// Name is the configured provider name (e.g., "openai-primary")
	Name string

	// Type selects the integration (openai, generic, anthropic, echo)
	Type string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is the authentication key
	APIKey string

	// Timeout is the per-call HTTP timeout
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}
