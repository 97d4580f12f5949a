package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TestHTTPClient_StatusMapping verifies HTTP status codes map to typed errors
// and that a failing status is never retried by the client.
func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		retryAfter string
		check      func(error) bool
	}{
		{
			name:       "200 OK - no error",
			statusCode: 200,
			check:      func(err error) bool { return err == nil },
		},
		{
			name:       "400 Bad Request",
			statusCode: 400,
			check: func(err error) bool {
				var providerErr *ProviderError
				return errors.As(err, &providerErr) && providerErr.StatusCode == 400
			},
		},
		{
			name:       "401 Unauthorized",
			statusCode: 401,
			check: func(err error) bool {
				var authErr *AuthError
				return errors.As(err, &authErr)
			},
		},
		{
			name:       "403 Forbidden",
			statusCode: 403,
			check: func(err error) bool {
				var authErr *AuthError
				return errors.As(err, &authErr)
			},
		},
		{
			name:       "429 Rate Limit with Retry-After",
			statusCode: 429,
			retryAfter: "7",
			check: func(err error) bool {
				var rateLimitErr *RateLimitError
				return errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter == 7*time.Second
			},
		},
		{
			name:       "500 Internal Server Error",
			statusCode: 500,
			check: func(err error) bool {
				var providerErr *ProviderError
				return errors.As(err, &providerErr) && providerErr.StatusCode == 500
			},
		},
		{
			name:       "503 Service Unavailable",
			statusCode: 503,
			check: func(err error) bool {
				var providerErr *ProviderError
				return errors.As(err, &providerErr) && providerErr.StatusCode == 503
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(`{"ok": true}`))
			}))
			defer server.Close()

			client := NewHTTPClient(ProviderConfig{Name: "test", Type: "openai"})
			defer client.Close()

			var out map[string]any
			err := client.DoJSONRequest(context.Background(), http.MethodPost, server.URL, map[string]string{"a": "b"}, &out, nil)
			if !tt.check(err) {
				t.Errorf("unexpected error for status %d: %v", tt.statusCode, err)
			}
			if got := calls.Load(); got != 1 {
				t.Errorf("expected exactly 1 call, got %d", got)
			}
		})
	}
}

func TestHTTPClient_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"broken": `))
	}))
	defer server.Close()

	client := NewHTTPClient(ProviderConfig{Name: "test"})
	var out map[string]any
	err := client.DoJSONRequest(context.Background(), http.MethodGet, server.URL, nil, &out, nil)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.RawResponse != `{"broken": ` {
		t.Errorf("unexpected raw response %q", parseErr.RawResponse)
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewHTTPClient(ProviderConfig{Name: "slow", Timeout: 50 * time.Millisecond})
	err := client.DoJSONRequest(context.Background(), http.MethodGet, server.URL, nil, nil, nil)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Timeout != 50*time.Millisecond {
		t.Errorf("expected timeout 50ms, got %s", timeoutErr.Timeout)
	}
}

func TestHTTPClient_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewHTTPClient(ProviderConfig{Name: "test"})
	err := client.DoJSONRequest(context.Background(), http.MethodPost, server.URL,
		map[string]string{}, nil, map[string]string{"Authorization": "Bearer k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPClient_PropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var traceparent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent.Store(r.Header.Get("traceparent"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))

	client := NewHTTPClient(ProviderConfig{Name: "test"})
	if err := client.DoJSONRequest(ctx, http.MethodPost, server.URL, map[string]string{}, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	if got, _ := traceparent.Load().(string); got != want {
		t.Errorf("traceparent = %q, want %q", got, want)
	}
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	c := NewHTTPClient(ProviderConfig{Name: "test"})
	cfg := c.Config()

	if cfg.Timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %s", cfg.Timeout)
	}
	if cfg.MaxIdleConns != defaultMaxIdleConns {
		t.Errorf("expected default max idle conns, got %d", cfg.MaxIdleConns)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("empty header: got %s", got)
	}
	if got := parseRetryAfter("12"); got != 12*time.Second {
		t.Errorf("seconds: got %s", got)
	}
	if got := parseRetryAfter("garbage"); got != 0 {
		t.Errorf("garbage: got %s", got)
	}
}
