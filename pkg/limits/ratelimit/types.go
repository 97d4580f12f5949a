package ratelimit

// DefaultMaxConcurrent is the in-flight ceiling used when none is configured.
const DefaultMaxConcurrent = 10

// Config configures the limiter of a single provider.
type Config struct {
	// MaxConcurrent bounds simultaneous in-flight calls (default 10).
	MaxConcurrent int

	// TokensPerSecond is the sustained call start rate; zero disables pacing.
	TokensPerSecond float64
}

// Stats is a point-in-time view of a limiter.
type Stats struct {
	// Limit is the configured concurrency ceiling
	Limit int `json:"limit"`

	// Pending counts calls queued or running
	Pending int64 `json:"pending"`

	// Running counts calls currently executing
	Running int64 `json:"running"`

	// TokensPerSecond is the configured pacing rate (0 = unpaced)
	TokensPerSecond float64 `json:"tokens_per_second"`
}
