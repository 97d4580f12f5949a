package strategies

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  bool
	}{
		{name: "empty defaults to round robin", input: "", wantName: RoundRobin},
		{name: "round_robin", input: "round_robin", wantName: RoundRobin},
		{name: "round-robin alias", input: "round-robin", wantName: RoundRobin},
		{name: "cost priority", input: "cost_priority_round_robin", wantName: CostPriority},
		{name: "cost_priority alias", input: "cost_priority", wantName: CostPriority},
		{name: "cost-priority alias", input: "Cost-Priority", wantName: CostPriority},
		{name: "unknown", input: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownStrategy) {
					t.Fatalf("expected ErrUnknownStrategy, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Name() != tt.wantName {
				t.Errorf("expected %q, got %q", tt.wantName, s.Name())
			}
		})
	}
}
