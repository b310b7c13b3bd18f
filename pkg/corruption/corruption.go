// Package corruption implements the per-worker and global corruption
// update/decay recurrence.
package corruption

import "github.com/blackswan-colony/simcore/pkg/models"

// FaultImpulse maps a fault kind to the corruption delta it
// contributes when it occurs this tick.
type FaultImpulse map[models.FaultKind]float64

// DefaultFaultImpulse returns the baseline per-fault-kind corruption
// contribution: DataSkew contaminates the most, StickyConfig persists
// but contributes less per-tick, Transient and QueueDrop barely move
// corruption since they don't leave lasting state.
func DefaultFaultImpulse() FaultImpulse {
	return FaultImpulse{
		models.FaultTransient:    0.0,
		models.FaultDataSkew:     0.05,
		models.FaultStickyConfig: 0.03,
		models.FaultQueueDrop:    0.01,
	}
}

// WorkerUpdate holds the tunables for one worker's corruption step.
type WorkerUpdate struct {
	StressPressure   float64
	StepUp           float64
	DecayPerTick     float64
	RecoverBoost     float64
	RecoveredTicks   float64
	FaultImpulseSum  float64
}

// UpdateWorker advances a worker's corruption by one tick and returns
// the new value, clamped to [0,1].
func UpdateWorker(current float64, u WorkerUpdate) float64 {
	next := current +
		u.FaultImpulseSum +
		u.StressPressure*u.StepUp -
		u.DecayPerTick -
		u.RecoverBoost*u.RecoveredTicks
	return models.Clamp01(next)
}

// GlobalUpdate holds the tunables for the global field's step.
type GlobalUpdate struct {
	MeanPerWorker float64
	Coupling      float64
	DecayPerTick  float64
}

// UpdateGlobal advances the global corruption field by one tick.
func UpdateGlobal(current float64, u GlobalUpdate) float64 {
	next := current + u.MeanPerWorker*u.Coupling - u.DecayPerTick
	return models.Clamp01(next)
}

// StressPressure combines heat, bandwidth and starvation signals into
// the single stress term the per-worker update reads.
func StressPressure(heatWeight, heatNorm, bwWeight, bwUtil, starvationWeight, queueSaturation float64) float64 {
	return heatWeight*heatNorm + bwWeight*bwUtil + starvationWeight*queueSaturation
}

// MeanPerWorker averages a field's per-worker corruption values; 0 for
// an empty field.
func MeanPerWorker(field *models.CorruptionField) float64 {
	if len(field.PerWorker) == 0 {
		return 0
	}
	var sum float64
	for _, v := range field.PerWorker {
		sum += v
	}
	return sum / float64(len(field.PerWorker))
}

// AboveSoftCap reports whether a worker's corruption exceeds the
// configured soft cap, above which extra stochastic soft-fault draws
// are taken from the "fault" stream even in otherwise successful ops.
func AboveSoftCap(corruption, softCap float64) bool {
	return corruption > softCap
}
