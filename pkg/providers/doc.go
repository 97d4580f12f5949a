// Package providers defines the provider-agnostic request and response types,
// the Handler contract every backend fulfils, and the typed errors built-in
// integrations return.
//
// # Handlers
//
// A Handler is a plain function:
//
//	type Handler func(ctx context.Context, req *Request) (*Response, error)
//
// Callers may supply their own handler per provider. Providers without one are
// served by a built-in integration looked up by provider type in a Registry:
//
//	reg := providers.NewRegistry()
//	reg.Register("echo", echo.New)
//
//	h, err := reg.Build(providers.ProviderConfig{Name: "local", Type: "echo"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := h(ctx, &providers.Request{Prompt: "hello", Model: "echo-1"})
//
// # HTTP Client
//
// HTTPClient is shared by the HTTP integrations. It pools connections and
// maps status codes to typed errors, but performs exactly one exchange per
// call; retries are applied by the router.
//
// # Error Handling
//
// The package defines specific error types for common failure scenarios:
//
//   - ProviderError: General provider errors
//   - AuthError: Authentication failures (HTTP 401/403)
//   - RateLimitError: Backend rate limit exceeded (HTTP 429)
//   - TimeoutError: Request timeout
//   - ParseError: Response parsing failure
//   - ConfigError: Invalid integration configuration
//   - NoIntegrationError: No handler and no built-in integration for a type
//
// Example error handling:
//
//	resp, err := h(ctx, req)
//	if err != nil {
//	    switch e := err.(type) {
//	    case *providers.AuthError:
//	        fmt.Printf("Authentication failed: %v\n", e)
//	    case *providers.RateLimitError:
//	        fmt.Printf("Rate limited, retry after: %v\n", e.RetryAfter)
//	    default:
//	        fmt.Printf("Error: %v\n", e)
//	    }
//	}
package providers
