// Package openai implements the OpenAI chat completions integration.
//
// The same integration serves the "generic" provider type, which targets any
// OpenAI-compatible endpoint. Generic providers must set a base URL and may
// omit the API key.
//
// # Basic Usage
//
//	h, err := openai.New(providers.ProviderConfig{
//	    Name:   "openai",
//	    Type:   "openai",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := h(ctx, &providers.Request{
//	    Prompt:     "Hello!",
//	    Model:      "gpt-4o",
//	    Parameters: map[string]any{"temperature": 0.2},
//	})
//
// # Request Mapping
//
// The prompt is sent as a single user message. A string "system" parameter
// is sent as a preceding system message. The temperature, top_p, max_tokens,
// stop, presence_penalty, frequency_penalty and user parameters are mapped to
// their OpenAI fields; other parameters are ignored.
//
// # Errors
//
// HTTP failures are mapped to the typed errors of the providers package. The
// integration performs exactly one HTTP exchange per call.
package openai
