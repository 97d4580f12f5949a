package health

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/conduit/pkg/resilience/breaker"
	"mercator-hq/conduit/pkg/routing"
)

// ErrNoRouter is reported while no Router is installed.
var ErrNoRouter = errors.New("no router installed")

// RouterCheck reports unhealthy while router returns nil or while no enabled
// provider has a closed or half-open circuit.
func RouterCheck(router func() *routing.Router) CheckFunc {
	return func(context.Context) error {
		r := router()
		if r == nil {
			return ErrNoRouter
		}

		snaps := r.Snapshots()
		var enabled, open int
		for _, snap := range snaps {
			if !snap.Enabled {
				continue
			}
			enabled++
			if snap.Circuit.State == breaker.StateOpen {
				open++
			}
		}

		switch {
		case enabled == 0:
			return fmt.Errorf("all %d providers disabled", len(snaps))
		case open == enabled:
			return fmt.Errorf("circuit open on all %d enabled providers", enabled)
		default:
			return nil
		}
	}
}
