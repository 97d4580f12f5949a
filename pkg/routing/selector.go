package routing

import (
	"log/slog"
	"slices"

	"mercator-hq/conduit/pkg/routing/strategies"
)

// selection carries the skip bookkeeping of one Execute call across the
// preferred and unrestricted passes, so a provider is gated at most once.
type selection struct {
	model       string
	visited     map[string]bool
	circuitOpen []string
	saturated   []string
}

func newSelection(model string) *selection {
	return &selection{model: model, visited: make(map[string]bool)}
}

// filterByModel returns the enabled records that declare model, in
// declaration order.
func (r *Router) filterByModel(model string) []*providerRecord {
	out := make([]*providerRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.isEnabled() && rec.supports(model) {
			out = append(out, rec)
		}
	}
	return out
}

// filterByName keeps the records whose names appear in names, preserving
// the order of records.
func filterByName(records []*providerRecord, names []string) []*providerRecord {
	out := make([]*providerRecord, 0, len(names))
	for _, rec := range records {
		if slices.Contains(names, rec.name) {
			out = append(out, rec)
		}
	}
	return out
}

// selectFrom orders records with the strategy and returns the first one that
// is neither breaker-open nor saturated, stamping it as used. The breaker
// admission is taken here, after both gates, and its done func is returned
// with the record; a provider whose breaker refuses admission is skipped as
// circuit-open. It returns a nil record when every record is skipped.
func (r *Router) selectFrom(records []*providerRecord, sel *selection) (*providerRecord, func(error)) {
	if len(records) == 0 {
		return nil, nil
	}

	byName := make(map[string]*providerRecord, len(records))
	candidates := make([]strategies.Candidate, 0, len(records))
	for _, rec := range records {
		byName[rec.name] = rec
		candidates = append(candidates, rec.candidate(sel.model))
	}

	for _, name := range r.strategy.Order(candidates) {
		if sel.visited[name] {
			continue
		}
		sel.visited[name] = true
		rec := byName[name]

		if rec.breaker.IsOpen() {
			r.logger.Debug("provider skipped, circuit open",
				"provider", name,
				"model", sel.model,
			)
			sel.circuitOpen = append(sel.circuitOpen, name)
			continue
		}

		if rec.limiter.Saturated() {
			r.logger.Debug("provider skipped, rate limit saturated",
				"provider", name,
				"model", sel.model,
			)
			rec.recordRateLimited()
			r.observer.ObserveRateLimited(name)
			sel.saturated = append(sel.saturated, name)
			continue
		}

		done, err := rec.breaker.Allow()
		if err != nil {
			// Opened since the gate check, or a half-open trial is running.
			r.logger.Debug("provider skipped, breaker refused admission",
				"provider", name,
				"model", sel.model,
				"error", err,
			)
			sel.circuitOpen = append(sel.circuitOpen, name)
			continue
		}

		rec.touch(r.now())
		return rec, done
	}

	return nil, nil
}

// availableModels lists the models served by enabled providers.
func (r *Router) availableModels() []string {
	seen := make(map[string]bool)
	var models []string
	for _, rec := range r.records {
		if !rec.isEnabled() {
			continue
		}
		for _, m := range rec.modelNames {
			if !seen[m] {
				seen[m] = true
				models = append(models, m)
			}
		}
	}
	slices.Sort(models)
	return models
}

func (sel *selection) logAttrs() []any {
	return []any{
		slog.String("model", sel.model),
		slog.Any("circuit_open", sel.circuitOpen),
		slog.Any("saturated", sel.saturated),
	}
}
