// Package ratelimit provides the per-provider limiter used by the router.
//
// # Overview
//
// Each provider owns one Limiter with two controls:
//
//   - MaxConcurrent bounds the number of in-flight calls. Calls beyond the
//     bound wait in a FIFO queue (golang.org/x/sync/semaphore).
//   - TokensPerSecond spaces call starts with a burst-1 token bucket
//     (golang.org/x/time/rate). Zero disables pacing.
//
// # Admission and Scheduling
//
// The router consults Saturated before selecting a provider and skips it
// when the queue is full. A call that was admitted still runs through Do,
// so a burst that slipped past the admission check is serialized rather
// than rejected:
//
//	if limiter.Saturated() {
//	    // try the next provider
//	}
//	err := limiter.Do(ctx, invoke)
//
// Every wait inside Do ends when ctx does.
package ratelimit
