package breaker

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
)

// slidingBuckets is the number of gobreaker buckets in a sliding window.
const slidingBuckets = 10

// TrialBreaker is the gobreaker-backed single-trial breaker. While half-open
// it admits one trial call; the trial's success closes the breaker and its
// failure opens it again. Concurrent callers are rejected with
// ErrTrialInProgress until the trial reports.
//
// gobreaker measures the reset timeout on the wall clock, so OpenedAt is
// stamped from the wall clock too.
type TrialBreaker struct {
	name          string
	cb            *gobreaker.TwoStepCircuitBreaker[struct{}]
	onStateChange func(name string, from, to State)

	successes atomic.Int64
	trips     atomic.Int64
	openedAt  atomic.Int64 // unix nanos, 0 when not open
}

// NewTrialBreaker creates an enabled single-trial breaker.
func NewTrialBreaker(name string, cfg Config, opts ...Option) (*TrialBreaker, error) {
	if err := validate(name, cfg); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	b := &TrialBreaker{
		name:          name,
		onStateChange: o.onStateChange,
	}

	threshold := uint32(cfg.Threshold)
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures >= threshold
		},
		OnStateChange: b.stateChanged,
	}
	if cfg.Window == WindowSliding && cfg.SamplingDuration > 0 {
		st.Interval = cfg.SamplingDuration
		st.BucketPeriod = cfg.SamplingDuration / slidingBuckets
	}

	b.cb = gobreaker.NewTwoStepCircuitBreaker[struct{}](st)
	return b, nil
}

// stateChanged runs under gobreaker's lock; it only touches atomics.
func (b *TrialBreaker) stateChanged(name string, from, to gobreaker.State) {
	if to == gobreaker.StateOpen {
		b.openedAt.Store(time.Now().UnixNano())
		if from == gobreaker.StateClosed {
			b.trips.Add(1)
		}
	} else {
		b.openedAt.Store(0)
	}

	if b.onStateChange != nil {
		b.onStateChange(name, convert(from), convert(to))
	}
}

// Name returns the breaker name.
func (b *TrialBreaker) Name() string {
	return b.name
}

// IsOpen reports whether the breaker is open.
func (b *TrialBreaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// Allow admits one call.
func (b *TrialBreaker) Allow() (func(err error), error) {
	done, err := b.cb.Allow()
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, ErrTrialInProgress
		case errors.Is(err, gobreaker.ErrOpenState):
			return nil, ErrOpen
		default:
			return nil, err
		}
	}

	var reported atomic.Bool
	return func(callErr error) {
		if !reported.CompareAndSwap(false, true) {
			return
		}
		if callErr == nil {
			b.successes.Add(1)
		}
		done(callErr)
	}, nil
}

// Snapshot returns the current state and counters.
func (b *TrialBreaker) Snapshot() Snapshot {
	state := b.cb.State()
	counts := b.cb.Counts()

	s := Snapshot{
		State:        convert(state),
		FailureCount: int(counts.TotalFailures),
		SuccessCount: b.successes.Load(),
		Trips:        b.trips.Load(),
	}
	if state == gobreaker.StateOpen {
		if ns := b.openedAt.Load(); ns != 0 {
			s.OpenedAt = time.Unix(0, ns)
		}
	}
	return s
}

func convert(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
