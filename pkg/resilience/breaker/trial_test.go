package breaker

import (
	"errors"
	"testing"
	"time"
)

func newTestTrialBreaker(t *testing.T, cfg Config, opts ...Option) *TrialBreaker {
	t.Helper()
	cfg.Enabled = true
	b, err := NewTrialBreaker("trial", cfg, opts...)
	if err != nil {
		t.Fatalf("NewTrialBreaker() failed: %v", err)
	}
	return b
}

func TestTrialBreaker_TripsAtThreshold(t *testing.T) {
	b := newTestTrialBreaker(t, Config{Threshold: 2, ResetTimeout: time.Hour})

	record(t, b, errBackend)
	if b.IsOpen() {
		t.Fatal("breaker opened before threshold")
	}
	record(t, b, errBackend)

	s := b.Snapshot()
	if s.State != StateOpen || s.Trips != 1 {
		t.Errorf("expected open with 1 trip, got %+v", s)
	}
	if _, err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestTrialBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := newTestTrialBreaker(t, Config{Threshold: 1, ResetTimeout: 20 * time.Millisecond})

	record(t, b, errBackend)
	time.Sleep(40 * time.Millisecond)

	if b.IsOpen() {
		t.Fatal("expected trial to be admitted")
	}
	record(t, b, errBackend)

	s := b.Snapshot()
	if s.State != StateOpen {
		t.Fatalf("expected reopen after failed trial, got %s", s.State)
	}
	if s.Trips != 1 {
		t.Errorf("a failed trial is the same excursion, expected 1 trip, got %d", s.Trips)
	}
}

func TestTrialBreaker_SingleTrial(t *testing.T) {
	b := newTestTrialBreaker(t, Config{Threshold: 1, ResetTimeout: 20 * time.Millisecond})

	record(t, b, errBackend)
	time.Sleep(40 * time.Millisecond)

	done, err := b.Allow()
	if err != nil {
		t.Fatalf("expected first trial to be admitted, got %v", err)
	}

	if _, err := b.Allow(); !errors.Is(err, ErrTrialInProgress) {
		t.Errorf("expected ErrTrialInProgress, got %v", err)
	}

	done(nil)
	if b.IsOpen() || b.Snapshot().State != StateClosed {
		t.Error("expected closed after trial success")
	}
	if got := b.Snapshot().SuccessCount; got != 1 {
		t.Errorf("expected success count 1, got %d", got)
	}
}

func TestTrialBreaker_SlidingWindowExpires(t *testing.T) {
	b := newTestTrialBreaker(t, Config{
		Threshold:        2,
		ResetTimeout:     time.Hour,
		SamplingDuration: 50 * time.Millisecond,
		Window:           WindowSliding,
	})

	record(t, b, errBackend)
	time.Sleep(120 * time.Millisecond)
	record(t, b, errBackend)

	if b.IsOpen() {
		t.Error("failures older than the sampling window must expire")
	}
}

// TestTrialBreaker_OpenedAtUsesWallClock verifies an injected clock does not
// stamp OpenedAt, since gobreaker times the reset on the wall clock.
func TestTrialBreaker_OpenedAtUsesWallClock(t *testing.T) {
	fake := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newTestTrialBreaker(t, Config{Threshold: 1, ResetTimeout: time.Hour},
		WithClock(func() time.Time { return fake }),
	)

	before := time.Now()
	record(t, b, errBackend)
	after := time.Now()

	got := b.Snapshot().OpenedAt
	if got.Before(before) || got.After(after) {
		t.Errorf("OpenedAt = %s, want between %s and %s", got, before, after)
	}
}
