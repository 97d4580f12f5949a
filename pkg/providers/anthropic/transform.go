package anthropic

import (
	"fmt"
	"strings"

	"mercator-hq/conduit/pkg/providers"
)

// defaultMaxTokens is sent when the request does not set max_tokens, which
// the Messages API requires.
const defaultMaxTokens = 4096

// Anthropic API request/response types

// AnthropicRequest represents an Anthropic messages request.
type AnthropicRequest struct {
	Model         string             `json:"model"`
	Messages      []AnthropicMessage `json:"messages"`
	System        string             `json:"system,omitempty"`
	MaxTokens     int                `json:"max_tokens"`
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

// AnthropicMessage represents a message in Anthropic format.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentBlock represents a content block in Anthropic format.
type ContentBlock struct {
	Type string `json:"type"` // "text" or "tool_use"
	Text string `json:"text,omitempty"`
}

// AnthropicResponse represents an Anthropic messages response.
type AnthropicResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        AnthropicUsage `json:"usage"`
}

// AnthropicUsage represents token usage in Anthropic format.
type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// transformRequest transforms a provider-agnostic request to Anthropic format.
// The prompt becomes the single user message; a "system" parameter goes to
// the dedicated system field.
func transformRequest(req *providers.Request) *AnthropicRequest {
	anthropicReq := &AnthropicRequest{
		Model:     req.Model,
		Messages:  []AnthropicMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: defaultMaxTokens,
	}

	if v, ok := req.Int("max_tokens"); ok && v > 0 {
		anthropicReq.MaxTokens = v
	}
	if v, ok := req.Float("temperature"); ok {
		anthropicReq.Temperature = &v
	}
	if v, ok := req.Float("top_p"); ok {
		anthropicReq.TopP = &v
	}
	if system, ok := req.Parameters["system"].(string); ok {
		anthropicReq.System = system
	}
	switch s := req.Parameters["stop"].(type) {
	case string:
		anthropicReq.StopSequences = []string{s}
	case []any:
		for _, e := range s {
			if str, ok := e.(string); ok {
				anthropicReq.StopSequences = append(anthropicReq.StopSequences, str)
			}
		}
	}

	return anthropicReq
}

// transformResponse transforms an Anthropic response to provider-agnostic format.
func transformResponse(resp *AnthropicResponse) (*providers.Response, error) {
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("no content blocks in response")
	}

	// Only text blocks contribute to the output text
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &providers.Response{
		Text:  text.String(),
		Model: resp.Model,
		Usage: &providers.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		Metadata: map[string]any{
			"id":            resp.ID,
			"finish_reason": normalizeStopReason(resp.StopReason),
		},
	}, nil
}

// normalizeStopReason maps Anthropic stop reasons onto OpenAI-style values.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	default:
		return reason
	}
}
