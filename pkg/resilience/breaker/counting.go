package breaker

import (
	"sync"
	"sync/atomic"
	"time"
)

// CircuitBreaker is the permissive counting breaker.
//
// Failures are counted while closed; reaching the threshold opens the
// breaker. The reset timeout is checked lazily by the next gate check, which
// moves the breaker to half-open. While half-open every caller is admitted
// and failures only add to the count. The first success closes the breaker
// and restarts the count from zero.
type CircuitBreaker struct {
	name          string
	threshold     int
	resetTimeout  time.Duration
	window        time.Duration // zero for the cumulative window
	onStateChange func(name string, from, to State)
	now           func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	failedAt  []time.Time // sliding window only
	successes int64
	trips     int64
	openedAt  time.Time
}

// NewCircuitBreaker creates an enabled permissive breaker.
func NewCircuitBreaker(name string, cfg Config, opts ...Option) (*CircuitBreaker, error) {
	if err := validate(name, cfg); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	b := &CircuitBreaker{
		name:          name,
		threshold:     cfg.Threshold,
		resetTimeout:  cfg.ResetTimeout,
		onStateChange: o.onStateChange,
		now:           o.now,
		state:         StateClosed,
	}
	if cfg.Window == WindowSliding && cfg.SamplingDuration > 0 {
		b.window = cfg.SamplingDuration
	}
	return b, nil
}

// Name returns the breaker name.
func (b *CircuitBreaker) Name() string {
	return b.name
}

// IsOpen reports whether the breaker is open.
func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gate(b.now())
}

// Allow admits one call unless the breaker is open. Half-open admits every
// caller.
func (b *CircuitBreaker) Allow() (func(err error), error) {
	b.mu.Lock()
	open := b.gate(b.now())
	b.mu.Unlock()
	if open {
		return nil, ErrOpen
	}

	var reported atomic.Bool
	return func(callErr error) {
		if reported.CompareAndSwap(false, true) {
			b.record(callErr)
		}
	}, nil
}

// Snapshot returns the current state and counters.
func (b *CircuitBreaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		State:        b.state,
		FailureCount: b.failureCount(b.now()),
		SuccessCount: b.successes,
		Trips:        b.trips,
	}
	if b.state == StateOpen {
		s.OpenedAt = b.openedAt
	}
	return s
}

// gate reports whether calls must be skipped, half-opening the breaker once
// the reset timeout has elapsed. The caller holds mu.
func (b *CircuitBreaker) gate(now time.Time) bool {
	if b.state != StateOpen {
		return false
	}
	if now.Sub(b.openedAt) < b.resetTimeout {
		return true
	}
	b.setState(StateHalfOpen, now)
	return false
}

func (b *CircuitBreaker) record(err error) {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.successes++
		if b.state == StateHalfOpen {
			b.setState(StateClosed, now)
		}
		return
	}

	if b.window > 0 {
		b.failedAt = append(b.failedAt, now)
	} else {
		b.failures++
	}
	if b.state == StateClosed && b.failureCount(now) >= b.threshold {
		b.setState(StateOpen, now)
	}
}

// failureCount returns the failures inside the window, dropping expired
// ones. The caller holds mu.
func (b *CircuitBreaker) failureCount(now time.Time) int {
	if b.window == 0 {
		return b.failures
	}
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.failedAt) && !b.failedAt[i].After(cutoff) {
		i++
	}
	b.failedAt = b.failedAt[i:]
	return len(b.failedAt)
}

// setState moves the breaker to state to. The caller holds mu.
func (b *CircuitBreaker) setState(to State, now time.Time) {
	from := b.state
	if from == to {
		return
	}
	b.state = to

	switch to {
	case StateOpen:
		b.openedAt = now
		if from == StateClosed {
			b.trips++
		}
	case StateClosed:
		b.openedAt = time.Time{}
		b.failures = 0
		b.failedAt = nil
	default:
		b.openedAt = time.Time{}
	}

	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
