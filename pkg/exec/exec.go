// Package exec implements the execution step: advancing a running
// worker's current op by one tick, rolling the fault die, and applying
// the fault taxonomy's recovery behavior.
package exec

import (
	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/rng"
)

// RateInputs are the per-worker, per-yard signals the effective-rate
// formula reads for one op step.
type RateInputs struct {
	BaseRate             float64
	WorkerSkill          float64
	ThermalThrottle      float64
	BandwidthAvailability float64
	WorkerCorruption     float64
	CorruptionPenalty    float64
}

// EffectiveRate computes base_rate * skill * throttle * bw_availability
// * (1 - corruption*penalty).
func EffectiveRate(in RateInputs) float64 {
	corrTerm := 1 - in.WorkerCorruption*in.CorruptionPenalty
	if corrTerm < 0 {
		corrTerm = 0
	}
	return in.BaseRate * in.WorkerSkill * in.ThermalThrottle * in.BandwidthAvailability * corrTerm
}

// FaultRiskInputs are the stress signals the fault-die probability
// formula reads.
type FaultRiskInputs struct {
	BaseFaultRate     float64
	HeatWeight        float64
	HeatNorm          float64
	BWWeight          float64
	BWUtil            float64
	StarvationWeight  float64
	Starvation        float64
	DebtFaultRateMult float64
	WorkerCorruption  float64
}

// FaultProbability computes P(fault) for one op step.
func FaultProbability(in FaultRiskInputs) float64 {
	stress := 1 + in.HeatWeight*in.HeatNorm + in.BWWeight*in.BWUtil + in.StarvationWeight*in.Starvation + in.DebtFaultRateMult
	p := in.BaseFaultRate * stress * (1 + in.WorkerCorruption)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Config carries the tunables for fault recovery behavior.
type Config struct {
	MaxRetries      int
	RetryBackoffTicks int
}

// StepResult reports what happened to a job/worker pair during one
// execution step.
type StepResult struct {
	OpAdvanced bool
	Finished   bool
	FinishedAs models.FinishReason
	FaultKind  models.FaultKind
	Faulted    bool
}

// Step advances one running worker's current op by one tick of
// progress, given the op's required work-units and this tick's
// effective rate. progress is the worker's accumulated fractional
// progress on the current op, updated in place.
//
// Fault rolling uses the "fault" stream; callers must pass the
// registry's fault stream so every fault die roll in the tick shares
// one isolated sequence.
func Step(cfg Config, j *models.Job, w *models.Worker, p *models.Pipeline, currentTick int64, requiredWorkUnits, effectiveRate, faultProb float64, progress *float64, faultStream *rng.Stream) StepResult {
	if faultStream.F01() < faultProb {
		return applyFault(cfg, j, w, faultStream)
	}

	*progress += effectiveRate
	if *progress < requiredWorkUnits {
		return StepResult{OpAdvanced: false}
	}

	*progress = 0
	j.OpCursor++
	if j.OpCursor >= len(p.Ops) {
		reason := models.FinishOK
		if currentTick > j.DeadlineTick {
			reason = models.FinishDeadlineMiss
		}
		_ = j.Finish(reason)
		w.State = models.WorkerState{Phase: models.WorkerIdle}
		return StepResult{OpAdvanced: true, Finished: true, FinishedAs: reason}
	}

	w.State.OpIndex = j.OpCursor
	return StepResult{OpAdvanced: true}
}

// applyFault rolls a fault kind (weighted equally here; callers that
// want scenario-tunable fault-kind weights should roll the kind
// themselves via faultStream.Choice and call ApplyFaultKind) and
// applies its recovery behavior.
func applyFault(cfg Config, j *models.Job, w *models.Worker, faultStream *rng.Stream) StepResult {
	kinds := []models.FaultKind{models.FaultTransient, models.FaultDataSkew, models.FaultStickyConfig, models.FaultQueueDrop}
	kind := kinds[faultStream.Choice([]float64{1, 1, 1, 1})]
	return ApplyFaultKind(cfg, j, w, kind)
}

// ApplyFaultKind applies one fault kind's recovery behavior to a job
// and its assigned worker.
func ApplyFaultKind(cfg Config, j *models.Job, w *models.Worker, kind models.FaultKind) StepResult {
	switch kind {
	case models.FaultTransient:
		retryCount := w.State.RetryCount + 1
		if retryCount > cfg.MaxRetries {
			_ = j.Finish(models.FinishDropped)
			w.State = models.WorkerState{Phase: models.WorkerIdle}
			return StepResult{Finished: true, FinishedAs: models.FinishDropped, Faulted: true, FaultKind: kind}
		}
		_ = j.TransitionTo(models.JobRetrying)
		j.State.RetryOpIndex = j.OpCursor
		j.State.BackoffTicks = cfg.RetryBackoffTicks
		w.State.RetryCount = retryCount
		return StepResult{Faulted: true, FaultKind: kind}

	case models.FaultDataSkew:
		j.Corrupted = true
		return StepResult{Faulted: true, FaultKind: kind}

	case models.FaultStickyConfig:
		w.StickyFaults[kind] = true
		w.State = models.WorkerState{Phase: models.WorkerFaulted, FaultKind: kind}
		return StepResult{Faulted: true, FaultKind: kind}

	case models.FaultQueueDrop:
		_ = j.Finish(models.FinishDropped)
		w.State = models.WorkerState{Phase: models.WorkerIdle}
		return StepResult{Finished: true, FinishedAs: models.FinishDropped, Faulted: true, FaultKind: kind}

	default:
		return StepResult{}
	}
}
