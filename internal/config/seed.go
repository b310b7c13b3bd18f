package config

import (
	"fmt"

	"github.com/blackswan-colony/simcore/internal/tick"
	"github.com/blackswan-colony/simcore/pkg/models"
)

// Seed builds a fresh tick.Session from a validated scenario
// definition and a session seed, populating the entity store the way
// a scenario author's catalog describes it.
func Seed(def *ScenarioDefinition, scenarioSeed, sessionSeed uint64) (*tick.Session, error) {
	cfg := tunablesToConfig(def)
	s := tick.NewSession(scenarioSeed, sessionSeed, cfg)
	s.Evaluator = tick.Evaluator{Victory: clauses(def.Victory), Loss: clauses(def.Loss)}

	for _, y := range def.Workyards {
		class := models.WorkerClass(y.Class)
		if !class.IsValid() {
			return nil, fmt.Errorf("config: workyard %d: unknown class %q", y.ID, y.Class)
		}
		yard := models.NewWorkyard(models.WorkyardID(y.ID), class, y.Capacity, y.HeatCap, y.PowerCap)
		s.Store.Workyards[yard.ID] = yard

		for _, w := range y.Workers {
			skills := map[models.OpKind]float64{}
			for op, v := range w.Skills {
				skills[models.OpKind(op)] = v
			}
			worker := models.NewWorker(models.WorkerID(w.ID), class, yard.ID, skills)
			s.Store.Workers[worker.ID] = worker
		}
	}

	for _, p := range def.Pipelines {
		qos := models.QoS(p.QoS)
		if qos == "" {
			qos = models.QoSBalanced
		}
		ops := make([]models.OpKind, len(p.Ops))
		for i, op := range p.Ops {
			ops[i] = models.OpKind(op)
		}
		pipe := &models.Pipeline{
			ID: p.ID, Ops: ops, QoS: qos,
			DeadlineMs: p.DeadlineMs, PayloadSz: p.PayloadSz, PendingCap: p.PendingCap,
		}
		if err := pipe.Validate(); err != nil {
			return nil, fmt.Errorf("config: pipeline %q: %w", p.ID, err)
		}
		s.Store.Pipelines[pipe.ID] = pipe
	}

	for _, e := range def.Events {
		event := models.NewBlackSwanEvent(e.ID, e.Name, triggerClauses(e.Triggers), effects(e.Effects), cureSpec(e.Cure), e.Weight)
		s.Store.Events[event.ID] = event
	}

	// Research unlock gates (def.Research) are evaluated on demand by
	// pkg/research.UnlockGate against s.Store.Research; the catalog
	// itself is consumed by the httpapi layer's gate instance, not
	// copied into the store.

	return s, nil
}

// ConfigFromScenario exposes the scenario-to-tick.Config mapping for
// callers (the httpapi save/load path) that need to rebuild a
// tick.Config from a scenario definition without reseeding a whole
// session.
func ConfigFromScenario(def *ScenarioDefinition) tick.Config {
	return tunablesToConfig(def)
}

func tunablesToConfig(def *ScenarioDefinition) tick.Config {
	t := def.Tunables
	return tick.Config{
		TickMs:                 def.TickMs,
		ScenarioDifficultyMult: def.Difficulty,
		BaseBandwidthCap:       t.BaseBandwidthCap,
		BaseFaultRate:          t.BaseFaultRate,
		HeatWeight:             t.HeatWeight,
		BWWeight:               t.BWWeight,
		StarvationWeight:       t.StarvationWeight,
		CorruptionPenalty:      t.CorruptionPenalty,
		MaxRetries:             t.MaxRetries,
		RetryBackoffTicks:      t.RetryBackoffTicks,
		OpCost:                 unitCost,
		PCIeGbps:               t.PCIeGbps,
		CorruptionStepUp:       t.CorruptionStepUp,
		CorruptionDecay:        t.CorruptionDecay,
		CorruptionRecoverBoost: t.CorruptionRecoverBoost,
		GlobalCoupling:         t.GlobalCoupling,
		GlobalDecay:            t.GlobalDecay,
		SoftCap:                t.SoftCap,
		KPICapacities:          t.KPICapacities,
		PowerPerWorker:         t.PowerPerWorker,
		VRAMBytes:              t.VRAMBytes,
		BatchMax:               t.BatchMax,
		BatchTimeoutTicks:      t.BatchTimeoutTicks,
	}
}

// unitCost is the default op-cost function: one work unit per op,
// independent of payload size. Scenarios wanting payload-scaled cost
// supply their own via tick.Config.OpCost after Seed returns.
func unitCost(models.OpKind, int64) float64 { return 1 }

func clauses(specs []ClauseSpec) []tick.Clause {
	out := make([]tick.Clause, len(specs))
	for i, c := range specs {
		out[i] = tick.Clause{Metric: c.Metric, Op: c.Op, Value: c.Value}
	}
	return out
}

func triggerClauses(specs []TriggerSpec) []models.TriggerClause {
	out := make([]models.TriggerClause, len(specs))
	for i, c := range specs {
		out[i] = models.TriggerClause{Metric: c.Metric, Op: models.TriggerOp(c.Op), Value: c.Value, WindowTicks: c.Window}
	}
	return out
}

func effects(specs []EffectSpec) []models.Effect {
	out := make([]models.Effect, len(specs))
	for i, e := range specs {
		out[i] = models.Effect{
			Kind:           models.EffectKind(e.Kind),
			OpKind:         models.OpKind(e.OpKind),
			Selector:       e.Selector,
			Append:         e.Append,
			Signal:         models.DebtSignal(e.Signal),
			Magnitude:      e.Magnitude,
			DurationTicks:  e.DurationTicks,
			IllusionSignal: e.IllusionSignal,
			Offset:         e.Offset,
			StickKind:      models.FaultKind(e.StickKind),
			StickClass:     models.WorkerClass(e.StickClass),
			StickCap:       e.StickCap,
		}
	}
	return out
}

func cureSpec(c *CureSpecYAML) *models.CureSpec {
	if c == nil {
		return nil
	}
	return &models.CureSpec{JobTemplate: c.JobTemplate, Parts: c.Parts, TotalTicks: c.TotalTicks}
}
