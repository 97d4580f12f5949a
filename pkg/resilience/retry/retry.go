// Package retry provides the retry controller that wraps a single provider
// invocation.
//
// Retries always target the same provider; failing over to a different
// provider is the caller's concern. The loop is github.com/avast/retry-go/v5
// driven with a capped exponential delay:
//
//	delay(i) = min(InitialBackoff * Multiplier^(i-1), MaxBackoff)
//
// where i is the 1-based index of the attempt that just failed.
package retry

import (
	"context"
	"math"
	"time"

	retrygo "github.com/avast/retry-go/v5"
)

// Config configures a Controller.
type Config struct {
	// Enabled turns retries on; a disabled controller makes exactly one attempt
	Enabled bool

	// Attempts is the total number of attempts, including the first (min 1)
	Attempts int

	// InitialBackoff is the delay after the first failed attempt
	InitialBackoff time.Duration

	// MaxBackoff caps the delay; zero means uncapped
	MaxBackoff time.Duration

	// Multiplier grows the delay between consecutive attempts
	Multiplier float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnRetry registers a callback invoked before each re-attempt with the
// 1-based index of the attempt that failed and its error.
func WithOnRetry(f func(attempt int, err error)) Option {
	return func(c *Controller) {
		c.onRetry = f
	}
}

// Controller runs a call with bounded re-attempts. It holds no per-call
// state and is safe for concurrent use.
type Controller struct {
	cfg     Config
	onRetry func(attempt int, err error)
}

// New creates a controller.
func New(cfg Config, opts ...Option) *Controller {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 1
	}
	if cfg.InitialBackoff < 0 {
		cfg.InitialBackoff = 0
	}

	c := &Controller{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Disabled returns a pass-through controller that makes a single attempt.
func Disabled() *Controller {
	return New(Config{})
}

// Attempts returns the effective number of attempts per call.
func (c *Controller) Attempts() int {
	if !c.cfg.Enabled {
		return 1
	}
	return c.cfg.Attempts
}

// Backoff returns the delay slept after the given failed attempt (1-based).
func (c *Controller) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := float64(c.cfg.InitialBackoff) * math.Pow(c.cfg.Multiplier, float64(attempt-1))
	if c.cfg.MaxBackoff > 0 && d > float64(c.cfg.MaxBackoff) {
		return c.cfg.MaxBackoff
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds or the attempts are used up, sleeping
// Backoff between attempts. It returns the last error verbatim on
// exhaustion and ctx's error if ctx ends during a backoff sleep.
func Do[T any](ctx context.Context, c *Controller, fn func(ctx context.Context) (T, error)) (T, error) {
	if c.Attempts() == 1 {
		return fn(ctx)
	}

	opts := []retrygo.Option{
		retrygo.Context(ctx),
		retrygo.Attempts(uint(c.cfg.Attempts)),
		retrygo.DelayType(func(n uint, _ error, _ retrygo.DelayContext) time.Duration {
			// n is 1-based here
			return c.Backoff(int(n))
		}),
		retrygo.LastErrorOnly(true),
	}
	if c.onRetry != nil {
		opts = append(opts, retrygo.OnRetry(func(n uint, err error) {
			// n is 0-based here; the final failure is not followed by a retry
			if attempt := int(n) + 1; attempt < c.cfg.Attempts {
				c.onRetry(attempt, err)
			}
		}))
	}

	return retrygo.NewWithData[T](opts...).Do(func() (T, error) {
		return fn(ctx)
	})
}
