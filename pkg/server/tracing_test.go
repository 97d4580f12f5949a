package server

import (
	"context"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/conduit/internal/testutil"
	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/routing"
	"mercator-hq/conduit/pkg/telemetry/tracing"
)

func TestTracing_CompletionSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(config.TracingConfig{Enabled: true}, "test", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter: %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	router, err := routing.New(testConfig(),
		routing.WithLogger(discardLogger()),
		routing.WithHandler("alpha", testutil.NewHandler("alpha").Handle),
		routing.WithHandler("beta", testutil.NewHandler("beta").Handle),
		routing.WithTracer(tracer.Tracer()),
	)
	if err != nil {
		t.Fatalf("routing.New: %v", err)
	}
	srv := newTestServer(t, router, WithTracer(tracer.Tracer()))

	header := http.Header{}
	header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	header.Set(RequestIDHeader, "req-trace")
	rec := do(t, srv.Handler(), http.MethodPost, "/v1/completions", `{"model":"gpt-4","prompt":"hi"}`, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(tracing.TraceIDHeader); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("%s = %q", tracing.TraceIDHeader, got)
	}

	var server, execute *tracetest.SpanStub
	spans := exporter.GetSpans()
	for i := range spans {
		switch spans[i].Name {
		case "POST /v1/completions":
			server = &spans[i]
		case tracing.SpanExecute:
			execute = &spans[i]
		}
	}
	if server == nil || execute == nil {
		t.Fatalf("missing spans, got %d spans", len(spans))
	}

	if server.SpanContext.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("server span did not continue the client trace")
	}
	if server.Parent.SpanID().String() != "00f067aa0ba902b7" {
		t.Errorf("server span parent = %s", server.Parent.SpanID())
	}
	if execute.Parent.SpanID() != server.SpanContext.SpanID() {
		t.Error("execute span is not a child of the server span")
	}

	attrs := map[string]string{}
	for _, kv := range server.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[tracing.AttrHTTPRoute] != "POST /v1/completions" {
		t.Errorf("route attribute = %q", attrs[tracing.AttrHTTPRoute])
	}
	if attrs[tracing.AttrHTTPStatusCode] != "200" {
		t.Errorf("status attribute = %q", attrs[tracing.AttrHTTPStatusCode])
	}
	if attrs[tracing.AttrRequestID] != "req-trace" {
		t.Errorf("request id attribute = %q", attrs[tracing.AttrRequestID])
	}
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(config.TracingConfig{Enabled: true}, "test", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter: %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	srv := newTestServer(t, nil, WithTracer(tracer.Tracer()))
	rec := do(t, srv.Handler(), http.MethodGet, "/v1/models", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "GET /v1/models" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status.Code)
	}
}
