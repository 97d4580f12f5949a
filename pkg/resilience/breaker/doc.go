// Package breaker provides the per-provider circuit breaker.
//
// A breaker is closed while its provider is healthy. Once the number of
// failures recorded while closed reaches the threshold it opens, and the
// router skips the provider. After the reset timeout has elapsed the next
// gate check moves the breaker to half-open and the provider is admissible
// again. A success recorded while half-open closes the breaker and the next
// failure streak counts from zero.
//
// # Half-Open Policy
//
// The default permissive policy admits every caller while half-open; a
// failure adds to the failure count and leaves the breaker half-open.
//
// The single_trial policy is github.com/sony/gobreaker/v2 in two-step mode.
// It admits exactly one trial call while half-open, rejects concurrent
// callers with ErrTrialInProgress, and opens again if the trial fails.
//
// Both policies separate the gate check from the outcome report, so the two
// can be split by an arbitrary amount of work (rate limiter queueing and
// the retry loop):
//
//	done, err := b.Allow()
//	if err != nil {
//	    return err // open, or a trial is already running
//	}
//	resp, err := invoke(ctx)
//	done(err)
//
// # Failure Window
//
// With the cumulative window (the default) failures never expire while the
// breaker is closed. With the sliding window failures older than the
// sampling duration are forgotten.
//
// Disabled returns a breaker that is never open and records nothing.
package breaker
