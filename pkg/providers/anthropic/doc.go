// Package anthropic implements the Anthropic Messages API integration.
//
// # Basic Usage
//
//	h, err := anthropic.New(providers.ProviderConfig{
//	    Name:   "anthropic",
//	    Type:   "anthropic",
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := h(ctx, &providers.Request{Prompt: "Hello!", Model: "claude-3-5-sonnet"})
//
// # Request Mapping
//
// The prompt is sent as the only user message and a string "system"
// parameter is sent in the system field. The Messages API requires
// max_tokens, so requests without it are sent with 4096.
//
// Usage is reported with TotalTokens computed as input plus output tokens,
// since the API does not return a total.
package anthropic
