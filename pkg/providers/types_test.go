package providers

import (
	"encoding/json"
	"testing"
)

func TestRequest_UnmarshalJSON(t *testing.T) {
	var req Request
	data := `{"prompt": "hello", "model": "gpt-4o", "temperature": 0.2, "max_tokens": 64}`
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Prompt != "hello" || req.Model != "gpt-4o" {
		t.Errorf("unexpected request %+v", req)
	}
	if _, ok := req.Parameters["prompt"]; ok {
		t.Error("prompt must not leak into parameters")
	}
	if v, ok := req.Float("temperature"); !ok || v != 0.2 {
		t.Errorf("expected temperature 0.2, got %v (%v)", v, ok)
	}
	if v, ok := req.Int("max_tokens"); !ok || v != 64 {
		t.Errorf("expected max_tokens 64, got %v (%v)", v, ok)
	}
	if _, ok := req.Float("missing"); ok {
		t.Error("expected missing parameter to report false")
	}
}

func TestRequest_MarshalJSON(t *testing.T) {
	req := Request{
		Prompt:     "hi",
		Parameters: map[string]any{"top_p": 0.9},
		Metadata:   map[string]string{"request_id": "abc"},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["prompt"] != "hi" || out["top_p"] != 0.9 {
		t.Errorf("unexpected payload %s", data)
	}
	if _, ok := out["model"]; ok {
		t.Error("empty model must be omitted")
	}
	if _, ok := out["request_id"]; ok {
		t.Error("metadata must never be serialized")
	}
}

func TestRequest_Clone(t *testing.T) {
	req := &Request{
		Prompt:     "p",
		Parameters: map[string]any{"k": 1},
		Metadata:   map[string]string{"m": "v"},
	}
	c := req.Clone()
	c.Parameters["k"] = 2
	c.Metadata["m"] = "changed"

	if req.Parameters["k"] != 1 || req.Metadata["m"] != "v" {
		t.Error("clone must not share maps with the original")
	}
}

func TestModelSpec_AverageCost(t *testing.T) {
	m := ModelSpec{CostPer1KInput: 0.01, CostPer1KOutput: 0.03}
	if got := m.AverageCost(); got < 0.0199 || got > 0.0201 {
		t.Errorf("expected 0.02, got %v", got)
	}
}
