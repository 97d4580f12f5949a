package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Source names a request header that may carry the API key. When Scheme is
// set the header value must be "<Scheme> <key>".
type Source struct {
	Header string
	Scheme string
}

// DefaultSources accepts "Authorization: Bearer <key>" and "X-API-Key: <key>".
var DefaultSources = []Source{
	{Header: "Authorization", Scheme: "Bearer"},
	{Header: "X-API-Key"},
}

// DenyFunc writes the response for a rejected request.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware rejects requests without a valid API key.
type Middleware struct {
	keys    *KeySet
	sources []Source
	logger  *slog.Logger
	deny    DenyFunc
}

// NewMiddleware creates the authentication middleware. A nil deny answers
// 401 with a plain-text body.
func NewMiddleware(keys *KeySet, logger *slog.Logger, deny DenyFunc) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return &Middleware{
		keys:    keys,
		sources: DefaultSources,
		logger:  logger,
		deny:    deny,
	}
}

// Handle wraps next with API key authentication. The caller's Identity is
// stored in the request context.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.keys.Validate(ExtractKey(r, m.sources))
		if err != nil {
			m.logger.Warn("request rejected",
				"error", err,
				"key_name", identity.Name,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			m.deny(w, r, err)
			return
		}

		m.logger.Debug("API key authenticated",
			"key_name", identity.Name,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// ExtractKey returns the first key found in sources, or "".
func ExtractKey(r *http.Request, sources []Source) string {
	for _, source := range sources {
		value := strings.TrimSpace(r.Header.Get(source.Header))
		if value == "" {
			continue
		}
		if source.Scheme == "" {
			return value
		}
		scheme, key, ok := strings.Cut(value, " ")
		if ok && strings.EqualFold(scheme, source.Scheme) {
			return strings.TrimSpace(key)
		}
	}
	return ""
}

type contextKey struct{}

// WithIdentity returns ctx carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFromContext returns the identity stored by the middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}
