package breaker

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errBackend = errors.New("backend failure")

// manualClock only moves when advanced.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestBreaker(t *testing.T, cfg Config, clock *manualClock, opts ...Option) *CircuitBreaker {
	t.Helper()
	cfg.Enabled = true
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	b, err := NewCircuitBreaker("test", cfg, opts...)
	if err != nil {
		t.Fatalf("NewCircuitBreaker() failed: %v", err)
	}
	return b
}

func record(t *testing.T, b Breaker, err error) {
	t.Helper()
	done, allowErr := b.Allow()
	if allowErr != nil {
		t.Fatalf("Allow() failed: %v", allowErr)
	}
	done(err)
}

func TestNew_Disabled(t *testing.T) {
	b, err := New("p", Config{Enabled: false, Threshold: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 10; i++ {
		record(t, b, errBackend)
	}
	if b.IsOpen() {
		t.Error("disabled breaker must never open")
	}
	if s := b.Snapshot(); s.State != StateClosed || s.FailureCount != 0 || s.Trips != 0 {
		t.Errorf("disabled breaker must record nothing, got %+v", s)
	}
}

func TestNew_SelectsHalfOpenPolicy(t *testing.T) {
	base := Config{Enabled: true, Threshold: 1, ResetTimeout: time.Second}

	tests := []struct {
		name     string
		halfOpen string
		check    func(Breaker) bool
		wantErr  bool
	}{
		{name: "default", halfOpen: "", check: func(b Breaker) bool { _, ok := b.(*CircuitBreaker); return ok }},
		{name: "permissive", halfOpen: HalfOpenPermissive, check: func(b Breaker) bool { _, ok := b.(*CircuitBreaker); return ok }},
		{name: "single trial", halfOpen: HalfOpenSingleTrial, check: func(b Breaker) bool { _, ok := b.(*TrialBreaker); return ok }},
		{name: "unknown", halfOpen: "eager", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.HalfOpen = tt.halfOpen
			b, err := New("p", cfg)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("expected error and nil breaker, got %v, %v", b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(b) {
				t.Errorf("unexpected breaker type %T", b)
			}
		})
	}
}

func TestNewCircuitBreaker_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero threshold", cfg: Config{Threshold: 0, ResetTimeout: time.Second}},
		{name: "zero reset timeout", cfg: Config{Threshold: 1}},
		{name: "unknown window", cfg: Config{Threshold: 1, ResetTimeout: time.Second, Window: "tumbling"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCircuitBreaker("p", tt.cfg); err == nil {
				t.Error("expected error from NewCircuitBreaker, got nil")
			}
			if _, err := NewTrialBreaker("p", tt.cfg); err == nil {
				t.Error("expected error from NewTrialBreaker, got nil")
			}
		})
	}
}

// TestCircuitBreaker_TripsOncePerExcursion verifies the breaker opens once
// the threshold is reached and counts a single trip.
func TestCircuitBreaker_TripsOncePerExcursion(t *testing.T) {
	clock := newManualClock()
	b := newTestBreaker(t, Config{Threshold: 3, ResetTimeout: time.Hour}, clock)

	record(t, b, errBackend)
	record(t, b, errBackend)
	if b.IsOpen() {
		t.Fatal("breaker opened before threshold")
	}
	if got := b.Snapshot().FailureCount; got != 2 {
		t.Errorf("expected failure count 2, got %d", got)
	}

	record(t, b, errBackend)
	if !b.IsOpen() {
		t.Fatal("breaker should be open at threshold")
	}

	s := b.Snapshot()
	if s.State != StateOpen || s.Trips != 1 {
		t.Errorf("expected open with 1 trip, got %+v", s)
	}
	if !s.OpenedAt.Equal(clock.Now()) {
		t.Errorf("expected OpenedAt %s, got %s", clock.Now(), s.OpenedAt)
	}

	if _, err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
	if got := b.Snapshot().Trips; got != 1 {
		t.Errorf("rejected calls must not add trips, got %d", got)
	}
}

// TestCircuitBreaker_CumulativeWindow verifies successes in between do not
// reset the failure count while closed.
func TestCircuitBreaker_CumulativeWindow(t *testing.T) {
	clock := newManualClock()
	b := newTestBreaker(t, Config{Threshold: 2, ResetTimeout: time.Hour}, clock)

	record(t, b, errBackend)
	clock.Advance(24 * time.Hour)
	record(t, b, nil)
	record(t, b, nil)
	record(t, b, errBackend)

	if !b.IsOpen() {
		t.Error("cumulative failures should open the breaker")
	}
}

func TestCircuitBreaker_SlidingWindowExpires(t *testing.T) {
	clock := newManualClock()
	b := newTestBreaker(t, Config{
		Threshold:        2,
		ResetTimeout:     time.Hour,
		SamplingDuration: time.Minute,
		Window:           WindowSliding,
	}, clock)

	record(t, b, errBackend)
	clock.Advance(2 * time.Minute)
	record(t, b, errBackend)

	if b.IsOpen() {
		t.Error("failures older than the sampling window must expire")
	}
	if got := b.Snapshot().FailureCount; got != 1 {
		t.Errorf("expected 1 failure inside the window, got %d", got)
	}

	clock.Advance(10 * time.Second)
	record(t, b, errBackend)
	if !b.IsOpen() {
		t.Error("two failures inside the window should open the breaker")
	}
}

// TestCircuitBreaker_ResetTimeoutUsesClock verifies the reset timeout is
// measured on the injected clock, the same one that stamps OpenedAt.
func TestCircuitBreaker_ResetTimeoutUsesClock(t *testing.T) {
	clock := newManualClock()
	b := newTestBreaker(t, Config{Threshold: 1, ResetTimeout: 30 * time.Second}, clock)

	record(t, b, errBackend)
	openedAt := b.Snapshot().OpenedAt

	clock.Advance(29 * time.Second)
	if !b.IsOpen() {
		t.Fatal("breaker half-opened before the reset timeout")
	}

	clock.Advance(time.Second)
	if b.IsOpen() {
		t.Fatal("breaker still open at OpenedAt + reset timeout")
	}
	if got := clock.Now().Sub(openedAt); got != 30*time.Second {
		t.Errorf("half-opened %s after OpenedAt, want 30s", got)
	}
	if s := b.Snapshot(); s.State != StateHalfOpen || !s.OpenedAt.IsZero() {
		t.Errorf("expected half-open without OpenedAt, got %+v", s)
	}
}

func TestCircuitBreaker_HalfOpenSuccessCloses(t *testing.T) {
	clock := newManualClock()
	b := newTestBreaker(t, Config{Threshold: 1, ResetTimeout: time.Minute}, clock)

	record(t, b, errBackend)
	if !b.IsOpen() {
		t.Fatal("expected open")
	}

	clock.Advance(time.Minute)
	if b.IsOpen() {
		t.Fatal("expected gate check to report not open after reset timeout")
	}

	record(t, b, nil)

	s := b.Snapshot()
	if s.State != StateClosed {
		t.Fatalf("expected closed after success, got %s", s.State)
	}
	if s.FailureCount != 0 {
		t.Errorf("failure streak must restart from zero, got %d", s.FailureCount)
	}
	if s.SuccessCount != 1 {
		t.Errorf("expected success count 1, got %d", s.SuccessCount)
	}

	// The next streak needs the full threshold again.
	record(t, b, errBackend)
	if got := b.Snapshot().Trips; got != 2 {
		t.Errorf("expected second trip, got %d", got)
	}
}

// TestCircuitBreaker_HalfOpenFailureStaysHalfOpen verifies a failure while
// half-open is counted without reopening, and the next success closes.
func TestCircuitBreaker_HalfOpenFailureStaysHalfOpen(t *testing.T) {
	clock := newManualClock()
	b := newTestBreaker(t, Config{Threshold: 1, ResetTimeout: time.Minute}, clock)

	record(t, b, errBackend)
	clock.Advance(time.Minute)
	if b.IsOpen() {
		t.Fatal("expected half-open after reset timeout")
	}

	record(t, b, errBackend)
	record(t, b, errBackend)

	s := b.Snapshot()
	if s.State != StateHalfOpen {
		t.Fatalf("expected half-open after failures, got %s", s.State)
	}
	if s.FailureCount != 3 {
		t.Errorf("expected failure count 3, got %d", s.FailureCount)
	}
	if s.Trips != 1 {
		t.Errorf("expected 1 trip, got %d", s.Trips)
	}
	if b.IsOpen() {
		t.Error("half-open breaker must stay admissible")
	}

	record(t, b, nil)
	if s := b.Snapshot(); s.State != StateClosed || s.FailureCount != 0 {
		t.Errorf("expected closed with zero failures, got %+v", s)
	}
}

// TestCircuitBreaker_HalfOpenAdmitsConcurrentCallers verifies the permissive
// policy lets every caller through while half-open.
func TestCircuitBreaker_HalfOpenAdmitsConcurrentCallers(t *testing.T) {
	clock := newManualClock()
	b := newTestBreaker(t, Config{Threshold: 1, ResetTimeout: time.Minute}, clock)

	record(t, b, errBackend)
	clock.Advance(time.Minute)

	first, err := b.Allow()
	if err != nil {
		t.Fatalf("first caller rejected: %v", err)
	}
	second, err := b.Allow()
	if err != nil {
		t.Fatalf("second caller rejected: %v", err)
	}

	second(errBackend)
	if got := b.Snapshot().State; got != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", got)
	}
	first(nil)
	if got := b.Snapshot().State; got != StateClosed {
		t.Errorf("expected closed, got %s", got)
	}
}

func TestCircuitBreaker_SuccessCountMonotonic(t *testing.T) {
	clock := newManualClock()
	b := newTestBreaker(t, Config{Threshold: 1, ResetTimeout: time.Second}, clock)

	record(t, b, nil)
	record(t, b, nil)
	record(t, b, errBackend)
	clock.Advance(time.Second)
	b.IsOpen()
	record(t, b, nil)

	if got := b.Snapshot().SuccessCount; got != 3 {
		t.Errorf("expected success count 3 across transitions, got %d", got)
	}
}

func TestCircuitBreaker_DoneIsIdempotent(t *testing.T) {
	b := newTestBreaker(t, Config{Threshold: 2, ResetTimeout: time.Hour}, newManualClock())

	done, err := b.Allow()
	if err != nil {
		t.Fatal(err)
	}
	done(errBackend)
	done(errBackend)

	if got := b.Snapshot().FailureCount; got != 1 {
		t.Errorf("expected 1 failure, got %d", got)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	clock := newManualClock()

	b := newTestBreaker(t, Config{Threshold: 1, ResetTimeout: time.Second}, clock,
		WithOnStateChange(func(name string, from, to State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	record(t, b, errBackend)
	clock.Advance(time.Second)
	b.IsOpen()
	record(t, b, nil)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}
