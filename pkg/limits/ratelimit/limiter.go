package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter bounds the in-flight calls of one provider and paces their starts.
//
// Concurrency is enforced by a weighted semaphore, which queues waiters in
// FIFO order. Pacing uses a token bucket with a burst of one, so call
// starts are spaced at least 1/TokensPerSecond apart.
//
// Saturated is the admission check used during provider selection. It
// counts every call that has entered Do and not yet returned, whether
// queued or running, so a provider with a backlog is skipped even before
// its slots are all taken.
//
// # Thread Safety
//
// Limiter is safe for concurrent use. A limiter belongs to exactly one
// provider and is never shared.
type Limiter struct {
	max   int
	rate  float64
	sem   *semaphore.Weighted
	pacer *rate.Limiter

	pending atomic.Int64
	running atomic.Int64
}

// NewLimiter creates a limiter. Non-positive MaxConcurrent falls back to
// DefaultMaxConcurrent.
//
// Example:
//
//	limiter := NewLimiter(Config{MaxConcurrent: 4, TokensPerSecond: 2})
//	err := limiter.Do(ctx, func(ctx context.Context) error {
//	    return call(ctx)
//	})
func NewLimiter(config Config) *Limiter {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}

	l := &Limiter{
		max:  config.MaxConcurrent,
		rate: config.TokensPerSecond,
		sem:  semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
	if config.TokensPerSecond > 0 {
		l.pacer = rate.NewLimiter(rate.Limit(config.TokensPerSecond), 1)
	}
	return l
}

// Saturated reports whether the limiter is at or above its ceiling.
func (l *Limiter) Saturated() bool {
	return l.pending.Load() >= int64(l.max)
}

// Do runs fn once a slot is free and the pacer allows a start. Waiting is
// bounded by ctx; if ctx ends first fn is not run and the context error is
// returned wrapped.
func (l *Limiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	l.pending.Add(1)
	defer l.pending.Add(-1)

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for concurrency slot: %w", err)
	}
	defer l.sem.Release(1)

	if l.pacer != nil {
		if err := l.pacer.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limit: %w", err)
		}
	}

	l.running.Add(1)
	defer l.running.Add(-1)

	return fn(ctx)
}

// Stats returns the current queue and concurrency figures.
func (l *Limiter) Stats() Stats {
	return Stats{
		Limit:           l.max,
		Pending:         l.pending.Load(),
		Running:         l.running.Load(),
		TokensPerSecond: l.rate,
	}
}
