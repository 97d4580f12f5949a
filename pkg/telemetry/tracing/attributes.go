package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on conduit spans. Custom keys live under "conduit.*".
const (
	AttrProvider  = "conduit.provider"
	AttrModel     = "conduit.model"
	AttrStrategy  = "conduit.strategy"
	AttrRequestID = "conduit.request_id"
	AttrAttempt   = "conduit.attempt"
	AttrAttempts  = "conduit.attempts"
	AttrPreferred = "conduit.preferred_providers"

	AttrTokensPrompt     = "conduit.tokens.prompt"
	AttrTokensCompletion = "conduit.tokens.completion"
	AttrCostUSD          = "conduit.cost_usd"

	AttrErrorType = "conduit.error.type"

	AttrHTTPMethod     = "http.request.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.response.status_code"
)

// Span names.
const (
	SpanExecute     = "routing.execute"
	SpanAttempt     = "provider.attempt"
	SpanHTTPRequest = "http.request"
)

// SetProviderAttributes sets provider and model on a span.
func SetProviderAttributes(span trace.Span, provider, model string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
	)
}

// SetTokenAttributes sets token counts on a span. Zero counts are skipped.
func SetTokenAttributes(span trace.Span, prompt, completion int) {
	if prompt > 0 {
		span.SetAttributes(attribute.Int(AttrTokensPrompt, prompt))
	}
	if completion > 0 {
		span.SetAttributes(attribute.Int(AttrTokensCompletion, completion))
	}
}

// SetError records err on the span and marks it failed. errType classifies
// the failure and may be empty.
func SetError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}
	if errType != "" {
		span.SetAttributes(attribute.String(AttrErrorType, errType))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetStatus sets the span status based on an error.
// If err is nil, status is set to OK, otherwise to Error.
func SetStatus(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
