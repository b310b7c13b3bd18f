// Package blackswan evaluates rare-event trigger clauses against KPI
// windows, fires eligible events via a weighted choice, applies their
// effects in order, and advances cure rituals.
package blackswan

import "github.com/blackswan-colony/simcore/pkg/models"

// MetricSource resolves a named metric's current aggregate over a
// given tick window, decoupling trigger evaluation from the concrete
// KPI window storage.
type MetricSource interface {
	// Value returns the metric's aggregate over the last windowTicks
	// ticks (0 means "use the metric's own default window").
	Value(metric string, windowTicks int64) (float64, bool)
}

// EvaluateClause reports whether a single trigger clause currently
// holds.
func EvaluateClause(src MetricSource, c models.TriggerClause) bool {
	v, ok := src.Value(c.Metric, c.WindowTicks)
	if !ok {
		return false
	}
	switch c.Op {
	case models.OpGT:
		return v > c.Value
	case models.OpGE:
		return v >= c.Value
	case models.OpLT:
		return v < c.Value
	case models.OpLE:
		return v <= c.Value
	case models.OpEQ:
		return v == c.Value
	default:
		return false
	}
}

// EvaluateTriggers reports whether every clause of an event's trigger
// list passes (ANDed).
func EvaluateTriggers(src MetricSource, triggers []models.TriggerClause) bool {
	for _, c := range triggers {
		if !EvaluateClause(src, c) {
			return false
		}
	}
	return true
}

// AdvanceDormant transitions every Dormant event whose triggers all
// pass to Eligible. Events are visited in the order given by the
// caller, which must already be canonical (ascending id) to preserve
// determinism.
func AdvanceDormant(events []*models.BlackSwanEvent, src MetricSource) {
	for _, e := range events {
		if e.State != models.EventDormant {
			continue
		}
		if EvaluateTriggers(src, e.Triggers) {
			e.State = models.EventEligible
		}
	}
}
