package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"mercator-hq/conduit/pkg/providers"
)

func TestAtomicRoutingStats_Concurrent(t *testing.T) {
	s := NewAtomicRoutingStats()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.IncrementExecutions()
			s.IncrementSelection(fmt.Sprintf("p%d", i%2))
			if i%5 == 0 {
				s.IncrementError(ErrorKindHandler)
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.TotalExecutions != 50 {
		t.Errorf("TotalExecutions = %d, want 50", snap.TotalExecutions)
	}
	if snap.SelectionsPerProvider["p0"] != 25 || snap.SelectionsPerProvider["p1"] != 25 {
		t.Errorf("SelectionsPerProvider = %v", snap.SelectionsPerProvider)
	}
	if snap.Errors != 10 || snap.ErrorsByKind[ErrorKindHandler] != 10 {
		t.Errorf("errors = %d, by kind %v", snap.Errors, snap.ErrorsByKind)
	}
}

func TestAtomicRoutingStats_Reset(t *testing.T) {
	s := NewAtomicRoutingStats()
	before := s.Snapshot().LastResetTime

	s.IncrementExecutions()
	s.IncrementPreferredHit()
	s.IncrementPreferredFallback()
	s.IncrementSelection("a")
	s.IncrementError(ErrorKindCanceled)
	s.Reset()

	snap := s.Snapshot()
	if snap.TotalExecutions != 0 || snap.PreferredHits != 0 || snap.PreferredFallbacks != 0 || snap.Errors != 0 {
		t.Errorf("counters not reset: %+v", snap)
	}
	if len(snap.SelectionsPerProvider) != 0 || len(snap.ErrorsByKind) != 0 {
		t.Errorf("maps not reset: %+v", snap)
	}
	if snap.LastResetTime.Before(before) {
		t.Error("LastResetTime moved backwards")
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"model required", ErrModelRequired, ErrorKindModelRequired},
		{"no provider", &NoProviderForModelError{Model: "m"}, ErrorKindNoProvider},
		{"no available", &NoAvailableProvidersError{Model: "m"}, ErrorKindNoAvailable},
		{"no integration", &providers.NoIntegrationError{Provider: "p", Type: "t"}, ErrorKindNoIntegration},
		{"canceled", context.Canceled, ErrorKindCanceled},
		{"wrapped deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), ErrorKindCanceled},
		{"handler", errors.New("boom"), ErrorKindHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorKind(tt.err); got != tt.want {
				t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
