package routing

import (
	"time"

	"mercator-hq/conduit/pkg/resilience/breaker"
)

// Observer receives routing events as they happen. Implementations must be
// safe for concurrent use and must not block: state change events are
// delivered while the provider's breaker holds its lock.
type Observer interface {
	// ObserveOutcome is called once per routed call with the handler's final
	// error (nil on success) and the wall time since invocation started.
	ObserveOutcome(provider, model string, err error, latency time.Duration)

	// ObserveRateLimited is called when a saturated provider is skipped.
	ObserveRateLimited(provider string)

	// ObserveStateChange is called on every breaker transition.
	ObserveStateChange(provider string, from, to breaker.State)

	// ObserveRetry is called before each retry, attempt being the attempt
	// that just failed (1-based).
	ObserveRetry(provider string, attempt int, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) ObserveOutcome(string, string, error, time.Duration)     {}
func (NopObserver) ObserveRateLimited(string)                               {}
func (NopObserver) ObserveStateChange(string, breaker.State, breaker.State) {}
func (NopObserver) ObserveRetry(string, int, error)                         {}
