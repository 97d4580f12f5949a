package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/routing"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an error.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error by status class.
	Type string `json:"type"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeAuthentication     = "authentication_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeServerError        = "server_error"
	ErrorTypeBadGateway         = "bad_gateway"
	ErrorTypeServiceUnavailable = "service_unavailable"
	ErrorTypeGatewayTimeout     = "gateway_timeout"
)

// Error codes.
const (
	CodeInvalidJSON         = "invalid_json"
	CodeInvalidAPIKey       = "invalid_api_key"
	CodeRequestTooLarge     = "request_too_large"
	CodeModelRequired       = "model_required"
	CodeModelNotFound       = "model_not_found"
	CodeProviderNotFound    = "provider_not_found"
	CodeProviderUnavailable = "provider_unavailable"
	CodeNoIntegration       = "no_integration"
	CodeProviderError       = "provider_error"
	CodeProviderTimeout     = "provider_timeout"
	CodeRouterUnavailable   = "router_unavailable"
	CodeInternalError       = "internal_error"
)

// classify maps an Execute or administrative error to an HTTP status, error
// type and code. Handler errors that are not timeouts become 502.
func classify(err error) (int, string, string) {
	var timeoutErr *providers.TimeoutError
	switch {
	case errors.Is(err, routing.ErrModelRequired):
		return http.StatusBadRequest, ErrorTypeInvalidRequest, CodeModelRequired
	case errors.Is(err, routing.ErrNoProviderForModel):
		return http.StatusNotFound, ErrorTypeNotFound, CodeModelNotFound
	case errors.Is(err, routing.ErrProviderNotFound):
		return http.StatusNotFound, ErrorTypeNotFound, CodeProviderNotFound
	case errors.Is(err, routing.ErrNoAvailableProviders):
		return http.StatusServiceUnavailable, ErrorTypeServiceUnavailable, CodeProviderUnavailable
	case errors.Is(err, providers.ErrNoIntegration):
		return http.StatusBadGateway, ErrorTypeBadGateway, CodeNoIntegration
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, ErrorTypeGatewayTimeout, CodeProviderTimeout
	default:
		return http.StatusBadGateway, ErrorTypeBadGateway, CodeProviderError
	}
}

func writeError(w http.ResponseWriter, status int, typ, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Message: message, Type: typ, Code: code}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// denyUnauthorized answers a request rejected by API key authentication.
func denyUnauthorized(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="conduit"`)
	writeError(w, http.StatusUnauthorized, ErrorTypeAuthentication, CodeInvalidAPIKey, err.Error())
}
