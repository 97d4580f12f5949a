package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestController_Backoff(t *testing.T) {
	c := New(Config{
		Enabled:        true,
		Attempts:       5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		Multiplier:     2,
	})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 100 * time.Millisecond},
		{attempt: 1, want: 100 * time.Millisecond},
		{attempt: 2, want: 200 * time.Millisecond},
		{attempt: 3, want: 400 * time.Millisecond},
		{attempt: 4, want: 800 * time.Millisecond},
		{attempt: 5, want: 1 * time.Second},
		{attempt: 60, want: 1 * time.Second},
	}

	for _, tt := range tests {
		if got := c.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestController_Attempts(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{name: "disabled", cfg: Config{Enabled: false, Attempts: 5}, want: 1},
		{name: "enabled", cfg: Config{Enabled: true, Attempts: 3}, want: 3},
		{name: "zero clamps to one", cfg: Config{Enabled: true, Attempts: 0}, want: 1},
		{name: "negative clamps to one", cfg: Config{Enabled: true, Attempts: -2}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.cfg).Attempts(); got != tt.want {
				t.Errorf("Attempts() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestDo_RetryBound verifies an always-failing call is attempted exactly
// Attempts times and that the handler's own error comes back.
func TestDo_RetryBound(t *testing.T) {
	c := New(Config{
		Enabled:        true,
		Attempts:       3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2,
	})

	var calls atomic.Int32
	_, err := Do(context.Background(), c, func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", errTransient
	})

	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
	if err != errTransient {
		t.Errorf("expected the handler's error verbatim, got %v", err)
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	c := New(Config{Enabled: true, Attempts: 3, InitialBackoff: time.Millisecond, Multiplier: 2})

	var retried []int
	c = New(c.cfg, WithOnRetry(func(attempt int, err error) {
		retried = append(retried, attempt)
	}))

	var calls int
	got, err := Do(context.Background(), c, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Errorf("expected 42 after 3 calls, got %d after %d", got, calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("expected retry callbacks for attempts [1 2], got %v", retried)
	}
}

func TestDo_DisabledSingleAttempt(t *testing.T) {
	var calls int
	start := time.Now()
	_, err := Do(context.Background(), Disabled(), func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errTransient
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if err != errTransient {
		t.Errorf("expected handler error, got %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("disabled controller must not sleep")
	}
}

func TestDo_SleepsBetweenAttempts(t *testing.T) {
	c := New(Config{Enabled: true, Attempts: 3, InitialBackoff: 20 * time.Millisecond, Multiplier: 2})

	start := time.Now()
	_, _ = Do(context.Background(), c, func(ctx context.Context) (int, error) {
		return 0, errTransient
	})

	// 20ms after the first failure, 40ms after the second
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("expected at least 60ms of backoff, got %s", elapsed)
	}
}

func TestDo_ContextCancelDuringBackoff(t *testing.T) {
	c := New(Config{Enabled: true, Attempts: 5, InitialBackoff: time.Second, Multiplier: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	start := time.Now()
	_, err := Do(ctx, c, func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, errTransient
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("backoff sleep must end with the context")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call before cancellation, got %d", calls.Load())
	}
}
