package openai

import (
	"fmt"

	"mercator-hq/conduit/pkg/providers"
)

// OpenAI API request/response types

// OpenAIRequest represents an OpenAI chat completion request.
type OpenAIRequest struct {
	Model            string          `json:"model"`
	Messages         []OpenAIMessage `json:"messages"`
	Temperature      *float64        `json:"temperature,omitempty"`
	MaxTokens        int             `json:"max_tokens,omitempty"`
	TopP             *float64        `json:"top_p,omitempty"`
	Stop             []string        `json:"stop,omitempty"`
	PresencePenalty  float64         `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64         `json:"frequency_penalty,omitempty"`
	User             string          `json:"user,omitempty"`
	N                int             `json:"n,omitempty"`
}

// OpenAIMessage represents a message in OpenAI format.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponse represents an OpenAI chat completion response.
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

// OpenAIChoice represents a completion choice in OpenAI format.
type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// OpenAIUsage represents token usage in OpenAI format.
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// transformRequest transforms a provider-agnostic request to OpenAI format.
// The prompt becomes a single user message, preceded by a system message
// when the "system" parameter is set.
func transformRequest(req *providers.Request) *OpenAIRequest {
	openaiReq := &OpenAIRequest{
		Model: req.Model,
		N:     1, // Always generate 1 completion
	}

	if system, ok := req.Parameters["system"].(string); ok && system != "" {
		openaiReq.Messages = append(openaiReq.Messages, OpenAIMessage{Role: "system", Content: system})
	}
	openaiReq.Messages = append(openaiReq.Messages, OpenAIMessage{Role: "user", Content: req.Prompt})

	if v, ok := req.Float("temperature"); ok {
		openaiReq.Temperature = &v
	}
	if v, ok := req.Float("top_p"); ok {
		openaiReq.TopP = &v
	}
	if v, ok := req.Int("max_tokens"); ok {
		openaiReq.MaxTokens = v
	}
	if v, ok := req.Float("presence_penalty"); ok {
		openaiReq.PresencePenalty = v
	}
	if v, ok := req.Float("frequency_penalty"); ok {
		openaiReq.FrequencyPenalty = v
	}
	if v, ok := req.Parameters["user"].(string); ok {
		openaiReq.User = v
	}
	openaiReq.Stop = stopSequences(req.Parameters["stop"])

	return openaiReq
}

// transformResponse transforms an OpenAI response to provider-agnostic format.
func transformResponse(resp *OpenAIResponse) (*providers.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	// Use the first choice (we always request N=1)
	choice := resp.Choices[0]

	return &providers.Response{
		Text:  choice.Message.Content,
		Model: resp.Model,
		Usage: &providers.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Metadata: map[string]any{
			"id":            resp.ID,
			"finish_reason": choice.FinishReason,
		},
	}, nil
}

func stopSequences(v any) []string {
	switch s := v.(type) {
	case string:
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
