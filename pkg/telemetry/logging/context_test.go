package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}

	ctx = WithProvider(ctx, "openai")
	if got := GetProvider(ctx); got != "openai" {
		t.Errorf("GetProvider() = %q, want %q", got, "openai")
	}

	ctx = WithModel(ctx, "gpt-4")
	if got := GetModel(ctx); got != "gpt-4" {
		t.Errorf("GetModel() = %q, want %q", got, "gpt-4")
	}
}

func TestContextKeys_Empty(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		get  func(context.Context) string
	}{
		{"RequestID", GetRequestID},
		{"Provider", GetProvider},
		{"Model", GetModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(ctx); got != "" {
				t.Errorf("Get%s() = %q, want empty", tt.name, got)
			}
		})
	}
}

func TestExtractContextFields(t *testing.T) {
	ctx := WithModel(WithRequestID(context.Background(), "req-1"), "gpt-4")

	fields := extractContextFields(ctx)
	want := []any{"request_id", "req-1", "model", "gpt-4"}
	if len(fields) != len(want) {
		t.Fatalf("extractContextFields() = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %v, want %v", i, fields[i], want[i])
		}
	}
}

func TestExtractContextFields_TraceID(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	fields := extractContextFields(ctx)
	if len(fields) != 2 || fields[0] != "trace_id" || fields[1] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("extractContextFields() = %v, want trace_id field", fields)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	if got := FromContext(context.Background(), logger); got != logger {
		t.Error("FromContext() with empty context should return the same logger")
	}

	ctx := WithProvider(WithRequestID(context.Background(), "req-9"), "anthropic")
	FromContext(ctx, logger).Info("routed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if entry["request_id"] != "req-9" {
		t.Errorf("request_id = %v, want req-9", entry["request_id"])
	}
	if entry["provider"] != "anthropic" {
		t.Errorf("provider = %v, want anthropic", entry["provider"])
	}
}

func TestContextOverwrite(t *testing.T) {
	ctx := WithRequestID(context.Background(), "first")
	ctx = WithRequestID(ctx, "second")
	if got := GetRequestID(ctx); got != "second" {
		t.Errorf("GetRequestID() = %q, want %q", got, "second")
	}
}
