package blackswan

import (
	"sort"

	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/rng"
)

// PickEligible runs a weighted choice (stream "black_swan") over every
// Eligible event, biased by weight * difficultyMult, and returns the
// one event chosen to fire this tick, or nil if there are none. Events
// are sorted into canonical (ascending id) order before the draw so
// the weight vector is reproducible regardless of map iteration order.
func PickEligible(events []*models.BlackSwanEvent, difficultyMult float64, stream *rng.Stream) *models.BlackSwanEvent {
	var eligible []*models.BlackSwanEvent
	for _, e := range events {
		if e.State == models.EventEligible {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })

	weights := make([]float64, len(eligible))
	for i, e := range eligible {
		weights[i] = e.Weight * difficultyMult
	}
	idx := stream.Choice(weights)
	return eligible[idx]
}

// PipelineLookup resolves a selector string (currently: an exact
// pipeline id, or "*" for every pipeline) to the pipelines it matches.
type PipelineLookup func(selector string) []*models.Pipeline

// WorkerLookup returns every worker of a class, in ascending id order.
type WorkerLookup func(class models.WorkerClass) []*models.Worker

// DebtSink registers a newly created debt and returns its id, so the
// firing event can remember which debts it owns (for cure reversal).
type DebtSink func(signal models.DebtSignal, magnitude float64, durationTicks int64) string

// IllusionSink records a display-only offset; never consulted by
// trigger evaluation. The tick session's sink stores the latest offset
// per signal name, and no telemetry read endpoint applies it.
type IllusionSink func(signal string, offset float64, durationTicks int64)

// Fire transitions an Eligible event to Fired and applies its effects
// atomically in list order.
func Fire(e *models.BlackSwanEvent, pipelines PipelineLookup, workers WorkerLookup, debts DebtSink, illusions IllusionSink) {
	e.State = models.EventFired
	for _, eff := range e.Effects {
		applyEffect(e, eff, pipelines, workers, debts, illusions)
	}
}

func applyEffect(e *models.BlackSwanEvent, eff models.Effect, pipelines PipelineLookup, workers WorkerLookup, debts DebtSink, illusions IllusionSink) {
	switch eff.Kind {
	case models.EffectPipelineInsert:
		for _, p := range pipelines(eff.Selector) {
			pos := -1
			if !eff.Append {
				pos = 0
			}
			p.ApplyMutation(e.ID, eff.OpKind, pos)
		}

	case models.EffectDebt:
		id := debts(eff.Signal, eff.Magnitude, eff.DurationTicks)
		e.DebtIDs = append(e.DebtIDs, id)

	case models.EffectIllusion:
		illusions(eff.IllusionSignal, eff.Offset, eff.DurationTicks)

	case models.EffectWorkerStick:
		ws := workers(eff.StickClass)
		limit := eff.StickCap
		if limit <= 0 || limit > len(ws) {
			limit = len(ws)
		}
		for i := 0; i < limit; i++ {
			ws[i].StickyFaults[eff.StickKind] = true
		}
	}
}

// StartCure begins a fired event's cure ritual, returning the first
// cure job's template id so the caller can submit it. No-op (returns
// "") if the event has no cure spec.
func StartCure(e *models.BlackSwanEvent) string {
	if e.Cure == nil {
		return ""
	}
	e.Progress = models.CureProgress{TicksRemaining: e.Cure.TotalTicks}
	return e.Cure.JobTemplate
}

// AdvanceCure decrements the cure countdown by one tick. When called
// with partCompleted=true it also records one completed part. Once
// every part is done, the event transitions to Cured and its debts
// should be reverted by the caller via RevertDebts.
func AdvanceCure(e *models.BlackSwanEvent, partCompleted bool) bool {
	if e.Cure == nil || e.State != models.EventFired {
		return false
	}
	if e.Progress.TicksRemaining > 0 {
		e.Progress.TicksRemaining--
	}
	if partCompleted {
		e.Progress.PartsDone++
	}
	if e.Progress.Done(*e.Cure) {
		e.State = models.EventCured
		return true
	}
	return false
}

// RevertDebts returns the ids of debts this event should have removed
// upon cure; the caller (owning the debt ledger) performs the actual
// removal.
func RevertDebts(e *models.BlackSwanEvent) []string {
	return e.DebtIDs
}
