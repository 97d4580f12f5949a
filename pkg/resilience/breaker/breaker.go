package breaker

import (
	"errors"
	"fmt"
	"time"
)

// Failure windows.
const (
	WindowCumulative = "cumulative"
	WindowSliding    = "sliding"
)

// Half-open policies.
const (
	// HalfOpenPermissive admits every caller while half-open. A failure is
	// counted and leaves the breaker half-open; the next success closes it.
	HalfOpenPermissive = "permissive"

	// HalfOpenSingleTrial admits one trial call while half-open. Its success
	// closes the breaker and its failure opens it again.
	HalfOpenSingleTrial = "single_trial"
)

var (
	// ErrOpen is returned by Allow while the breaker is open.
	ErrOpen = errors.New("circuit breaker is open")

	// ErrTrialInProgress is returned by Allow while a half-open trial is running.
	ErrTrialInProgress = errors.New("circuit breaker trial in progress")
)

// State is the breaker state.
type State string

// Breaker states.
const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// Config configures a breaker.
type Config struct {
	// Enabled turns the breaker on; a disabled breaker is never open
	Enabled bool

	// Threshold is the number of failures that opens a closed breaker
	Threshold int

	// SamplingDuration is the failure window length for the sliding window
	SamplingDuration time.Duration

	// ResetTimeout is how long the breaker stays open before it half-opens
	ResetTimeout time.Duration

	// Window is WindowCumulative (default) or WindowSliding
	Window string

	// HalfOpen is HalfOpenPermissive (default) or HalfOpenSingleTrial
	HalfOpen string
}

// Snapshot is a point-in-time copy of a breaker's state.
type Snapshot struct {
	State State `json:"state"`

	// FailureCount counts failures since the breaker last closed
	FailureCount int `json:"failure_count"`

	// SuccessCount counts every success ever recorded
	SuccessCount int64 `json:"success_count"`

	// Trips counts closed to open transitions
	Trips int64 `json:"trips"`

	// OpenedAt is set only while the breaker is open
	OpenedAt time.Time `json:"opened_at,omitzero"`
}

// Breaker gates calls to one provider.
type Breaker interface {
	// IsOpen reports whether calls must be skipped. Once the reset timeout
	// has elapsed it moves the breaker to half-open and reports false.
	IsOpen() bool

	// Allow admits one call. The returned done func must be called exactly
	// once with the call's final error (nil for success).
	Allow() (done func(err error), err error)

	// Snapshot returns the current state and counters.
	Snapshot() Snapshot
}

type options struct {
	onStateChange func(name string, from, to State)
	now           func() time.Time
}

// Option configures a breaker.
type Option func(*options)

// WithOnStateChange registers a callback invoked on every transition.
// The callback runs while the breaker holds its internal lock and must not
// call back into the breaker.
func WithOnStateChange(f func(name string, from, to State)) Option {
	return func(o *options) {
		o.onStateChange = f
	}
}

// WithClock sets the time source of the permissive breaker. It drives both
// the OpenedAt stamp and the reset timeout. The single-trial breaker times
// its reset on the wall clock and ignores this option.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New returns the breaker selected by cfg: the no-op breaker when cfg.Enabled
// is false, the single-trial breaker for HalfOpenSingleTrial, and the
// permissive counting breaker otherwise.
func New(name string, cfg Config, opts ...Option) (Breaker, error) {
	if !cfg.Enabled {
		return Disabled(), nil
	}
	var (
		b   Breaker
		err error
	)
	switch cfg.HalfOpen {
	case "", HalfOpenPermissive:
		b, err = NewCircuitBreaker(name, cfg, opts...)
	case HalfOpenSingleTrial:
		b, err = NewTrialBreaker(name, cfg, opts...)
	default:
		err = fmt.Errorf("breaker %q: unknown half-open policy %q", name, cfg.HalfOpen)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func validate(name string, cfg Config) error {
	if cfg.Threshold < 1 {
		return fmt.Errorf("breaker %q: threshold must be at least 1, got %d", name, cfg.Threshold)
	}
	if cfg.ResetTimeout <= 0 {
		return fmt.Errorf("breaker %q: reset timeout must be positive, got %s", name, cfg.ResetTimeout)
	}
	switch cfg.Window {
	case "", WindowCumulative, WindowSliding:
		return nil
	default:
		return fmt.Errorf("breaker %q: unknown window %q", name, cfg.Window)
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
