// Package report periodically logs provider snapshots and router statistics.
//
// The schedule comes from telemetry.report.schedule and uses
// github.com/robfig/cron/v3 syntax:
//
//	reporter := report.NewReporter("@every 1m", srv.Router, logger)
//	if err := reporter.Start(ctx); err != nil {
//	    return err
//	}
package report
