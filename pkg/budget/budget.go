// Package budget computes per-tick effective resource caps and thermal
// throttling for workyards: power, heat, bandwidth and VRAM pressure,
// combined with active debts and the scenario's difficulty multiplier.
package budget

import "github.com/blackswan-colony/simcore/pkg/models"

// DebtMultipliers aggregates the currently active per-signal
// multipliers, one sum per models.DebtSignal, read off the debt ledger
// once per tick rather than walked per workyard.
type DebtMultipliers struct {
	PowerMult     float64
	HeatMult      float64
	BWMult        float64
	FaultRateMult float64
}

// NewDebtMultipliers returns multipliers that are neutral (no debt
// applied): each starts at 1 except FaultRateMult, which is additive
// and starts at 0.
func NewDebtMultipliers() DebtMultipliers {
	return DebtMultipliers{PowerMult: 1, HeatMult: 1, BWMult: 1, FaultRateMult: 0}
}

// Apply folds one active debt into the running multipliers. A debt's
// Magnitude is itself the multiplier contribution: power/heat/bw debts
// are multiplicative (1 + Σ(magnitude-1)), fault_rate debts are
// additive, matching the fault-die formula in the execution step.
func (d *DebtMultipliers) Apply(debt *models.Debt) {
	switch debt.Signal {
	case models.DebtPowerMult:
		d.PowerMult += debt.Magnitude - 1
	case models.DebtHeatMult:
		d.HeatMult += debt.Magnitude - 1
	case models.DebtBandwidthMult:
		d.BWMult += debt.Magnitude - 1
	case models.DebtFaultRateMult:
		d.FaultRateMult += debt.Magnitude
	}
}

// EffectiveCaps holds the resolved per-tick caps for a single workyard,
// after debts, scenario difficulty and thermal throttle are folded in.
type EffectiveCaps struct {
	PowerCap         float64
	HeatCap          float64
	BandwidthCap     float64
	ThrottleFactor   float64
	PowerDeficitTick bool
}

// Accountant computes effective caps and thermal throttle for
// workyards, given the tick's debt multipliers and scenario difficulty.
type Accountant struct {
	ScenarioDifficultyMult float64
	BaseBandwidthCap       float64
}

// NewAccountant creates an accountant with the scenario's base
// difficulty multiplier and shared bandwidth cap.
func NewAccountant(difficultyMult, baseBandwidthCap float64) *Accountant {
	return &Accountant{ScenarioDifficultyMult: difficultyMult, BaseBandwidthCap: baseBandwidthCap}
}

// Compute resolves this tick's effective caps for one workyard and
// updates its thermal throttle factor in place. priorDrawExceededCap is
// the workyard's own bookkeeping of whether last tick's actual power
// draw exceeded its then-effective cap; when true this tick is marked
// a power deficit tick for KPI purposes.
func (a *Accountant) Compute(y *models.Workyard, debts DebtMultipliers, priorDrawExceededCap bool) EffectiveCaps {
	y.RecomputeThrottle()

	powerCap := y.BasePowerCap * debts.PowerMult * a.ScenarioDifficultyMult
	heatCap := y.HeatCap * debts.HeatMult
	bwCap := a.BaseBandwidthCap * debts.BWMult

	return EffectiveCaps{
		PowerCap:         powerCap,
		HeatCap:          heatCap,
		BandwidthCap:     bwCap,
		ThrottleFactor:   y.ThermalThrottleFactor,
		PowerDeficitTick: priorDrawExceededCap,
	}
}

// BandwidthAvailability returns the fraction of bandwidth capacity
// still free given current utilization, clamped to [0,1]; used as a
// multiplicative term in the execution step's effective-rate formula.
func BandwidthAvailability(usedBytesPerTick, capBytesPerTick float64) float64 {
	if capBytesPerTick <= 0 {
		return 0
	}
	avail := 1 - usedBytesPerTick/capBytesPerTick
	return models.Clamp01(avail)
}
