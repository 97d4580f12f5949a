package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/conduit/pkg/routing"
)

// Reporter logs provider snapshots and router statistics on a cron schedule.
//
// The router is looked up on every run, so a Reporter keeps reporting on
// whichever Router is current after a configuration reload.
type Reporter struct {
	schedule string
	router   func() *routing.Router
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewReporter creates a reporter. router returns the Router to report on and
// may return nil while none is installed.
func NewReporter(schedule string, router func() *routing.Router, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		schedule: schedule,
		router:   router,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With("component", "report"),
	}
}

// Start schedules the report. The schedule accepts standard five-field cron
// expressions and descriptors:
//   - "@every 1m"   - Every minute
//   - "*/5 * * * *" - Every five minutes
//   - "@hourly"     - At the top of every hour
//
// If the schedule is empty, the reporter does nothing. The reporter stops
// when ctx is done.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Info("report schedule not configured, skipping reporter")
		return nil
	}
	if r.running {
		return nil
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}

	if _, err := r.cron.AddFunc(r.schedule, r.Report); err != nil {
		return fmt.Errorf("failed to schedule report: %w", err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("stats reporter started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Report logs one line per provider and one line of router-wide statistics.
func (r *Reporter) Report() {
	router := r.router()
	if router == nil {
		r.logger.Debug("no router installed, skipping report")
		return
	}

	for _, snap := range router.Snapshots() {
		m := snap.Metrics
		r.logger.Info("provider stats",
			"provider", snap.Name,
			"enabled", snap.Enabled,
			"circuit_state", snap.Circuit.State.String(),
			"total_requests", m.TotalRequests,
			"successful_requests", m.SuccessfulRequests,
			"failed_requests", m.FailedRequests,
			"rate_limited_requests", m.RateLimitedRequests,
			"circuit_breaker_trips", m.CircuitBreakerTrips,
			"success_rate", m.SuccessRate(),
			"avg_response_ms", m.AverageResponseTime.Milliseconds(),
			"in_flight", snap.Limiter.Pending,
		)
	}

	stats := router.Stats()
	r.logger.Info("router stats",
		"strategy", router.Strategy(),
		"total_executions", stats.TotalExecutions,
		"errors", stats.Errors,
		"preferred_hits", stats.PreferredHits,
		"preferred_fallbacks", stats.PreferredFallbacks,
	)
}

// Stop stops the reporter and waits for a running report to complete.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		ctx := r.cron.Stop()
		<-ctx.Done()
		r.running = false
		r.logger.Info("stats reporter stopped")
	}
}

// IsRunning returns true if the reporter is running.
func (r *Reporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.running
}

// NextRun returns the next scheduled report time, or nil if none is scheduled.
func (r *Reporter) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
