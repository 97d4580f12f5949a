package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/conduit/pkg/config"
)

func boolPtr(b bool) *bool { return &b }

func testKeys() *KeySet {
	return NewKeySet([]config.APIKeyConfig{
		{Name: "ci", Key: "sk-ci-123"},
		{Name: "batch", Key: "sk-batch-456", Enabled: boolPtr(true)},
		{Name: "revoked", Key: "sk-old-789", Enabled: boolPtr(false)},
		{Name: "empty", Key: ""},
	})
}

func TestKeySet_Validate(t *testing.T) {
	keys := testKeys()
	if keys.Len() != 3 {
		t.Errorf("Len() = %d, want 3", keys.Len())
	}

	tests := []struct {
		name     string
		key      string
		wantName string
		wantErr  error
	}{
		{name: "valid", key: "sk-ci-123", wantName: "ci"},
		{name: "explicitly enabled", key: "sk-batch-456", wantName: "batch"},
		{name: "disabled", key: "sk-old-789", wantName: "revoked", wantErr: ErrKeyDisabled},
		{name: "unknown", key: "sk-nope", wantErr: ErrInvalidKey},
		{name: "empty", key: "", wantErr: ErrMissingKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := keys.Validate(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if id.Name != tt.wantName {
				t.Errorf("Validate() name = %q, want %q", id.Name, tt.wantName)
			}
		})
	}
}

func TestExtractKey(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		want   string
	}{
		{name: "bearer", header: http.Header{"Authorization": {"Bearer sk-1"}}, want: "sk-1"},
		{name: "bearer case insensitive", header: http.Header{"Authorization": {"bearer  sk-1 "}}, want: "sk-1"},
		{name: "x-api-key", header: http.Header{"X-Api-Key": {"sk-2"}}, want: "sk-2"},
		{name: "bearer wins", header: http.Header{"Authorization": {"Bearer sk-1"}, "X-Api-Key": {"sk-2"}}, want: "sk-1"},
		{name: "basic auth ignored", header: http.Header{"Authorization": {"Basic dXNlcg=="}}, want: ""},
		{name: "none", header: http.Header{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header = tt.header
			if got := ExtractKey(r, DefaultSources); got != tt.want {
				t.Errorf("ExtractKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware_Handle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var denied error
	mw := NewMiddleware(testKeys(), logger, func(w http.ResponseWriter, r *http.Request, err error) {
		denied = err
		w.WriteHeader(http.StatusUnauthorized)
	})

	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := mw.Handle(next)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantErr    error
		wantName   string
	}{
		{name: "valid bearer", header: "Authorization", value: "Bearer sk-ci-123", wantStatus: http.StatusNoContent, wantName: "ci"},
		{name: "valid x-api-key", header: "X-API-Key", value: "sk-batch-456", wantStatus: http.StatusNoContent, wantName: "batch"},
		{name: "missing", wantStatus: http.StatusUnauthorized, wantErr: ErrMissingKey},
		{name: "invalid", header: "Authorization", value: "Bearer sk-nope", wantStatus: http.StatusUnauthorized, wantErr: ErrInvalidKey},
		{name: "revoked", header: "X-API-Key", value: "sk-old-789", wantStatus: http.StatusUnauthorized, wantErr: ErrKeyDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			denied, seen = nil, Identity{}

			r := httptest.NewRequest(http.MethodPost, "/v1/completions", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !errors.Is(denied, tt.wantErr) {
				t.Errorf("deny error = %v, want %v", denied, tt.wantErr)
			}
			if seen.Name != tt.wantName {
				t.Errorf("identity = %q, want %q", seen.Name, tt.wantName)
			}
		})
	}
}

func TestMiddleware_DefaultDeny(t *testing.T) {
	mw := NewMiddleware(testKeys(), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	handler := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestIdentityFromContext_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := IdentityFromContext(r.Context()); ok {
		t.Error("expected no identity")
	}
}
