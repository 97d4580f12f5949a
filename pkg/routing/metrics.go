package routing

import "time"

// Metrics aggregates the outcomes of calls routed to one provider.
//
// Every selection-layer outcome lands in exactly one of SuccessfulRequests,
// FailedRequests or RateLimitedRequests. A rate-limit skip never reaches the
// provider, so it does not count towards TotalRequests or LastRequestTime.
type Metrics struct {
	TotalRequests       int64         `json:"total_requests"`
	SuccessfulRequests  int64         `json:"successful_requests"`
	FailedRequests      int64         `json:"failed_requests"`
	RateLimitedRequests int64         `json:"rate_limited_requests"`
	CircuitBreakerTrips int64         `json:"circuit_breaker_trips"`
	LastRequestTime     time.Time     `json:"last_request_time,omitzero"`
	AverageResponseTime time.Duration `json:"average_response_time"`
}

// recordSuccess counts a successful call and folds latency into the running
// mean over successes.
func (m *Metrics) recordSuccess(now time.Time, latency time.Duration) {
	m.TotalRequests++
	m.SuccessfulRequests++
	m.LastRequestTime = now

	n := m.SuccessfulRequests
	m.AverageResponseTime = time.Duration((int64(m.AverageResponseTime)*(n-1) + int64(latency)) / n)
}

// recordFailure counts a failed call. The average is left untouched.
func (m *Metrics) recordFailure(now time.Time) {
	m.TotalRequests++
	m.FailedRequests++
	m.LastRequestTime = now
}

// recordRateLimited counts a selection skipped because the provider was saturated.
func (m *Metrics) recordRateLimited() {
	m.RateLimitedRequests++
}

// SuccessRate returns the fraction of routed calls that succeeded, or 0 when
// nothing has been routed yet.
func (m Metrics) SuccessRate() float64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return float64(m.SuccessfulRequests) / float64(m.TotalRequests)
}
