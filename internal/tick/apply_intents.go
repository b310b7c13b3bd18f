package tick

import (
	"github.com/blackswan-colony/simcore/pkg/gpubatch"
	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/research"
)

// applyIntents drains the intent queue up to cutoffSeq and applies each
// one against the store, in sequence order -- the first step of every
// tick, so every later step sees a world already reflecting this
// tick's accepted mutations.
func (s *Session) applyIntents(cutoffSeq uint64) []IntentResult {
	intents := s.Queue.Drain(cutoffSeq)
	results := make([]IntentResult, 0, len(intents))
	for _, in := range intents {
		results = append(results, s.applyOne(in))
	}
	return results
}

func (s *Session) applyOne(in Intent) IntentResult {
	switch in.Kind {
	case IntentSubmitJob:
		return s.applySubmitJob(in)
	case IntentSetTimeScale:
		s.Clock.Scale = in.TimeScale
		return IntentResult{Intent: in}
	case IntentSwitchScheduler:
		s.schedPolicy = in.Policy
		return IntentResult{Intent: in}
	case IntentMaintenanceStart:
		return s.applyMaintenanceStart(in)
	case IntentReimageWorker:
		return s.applyReimageWorker(in)
	case IntentForceFireEvent:
		return s.applyForceFireEvent(in)
	case IntentSetCorruptionConfig:
		s.applySetCorruptionConfig(in)
		return IntentResult{Intent: in}
	case IntentSetGPUConfig:
		s.applySetGPUConfig(in)
		return IntentResult{Intent: in}
	case IntentUnlockResearch:
		return s.applyUnlockResearch(in)
	case IntentStartRitual:
		return s.applyStartRitual(in)
	case IntentSetIOTraffic:
		s.ioUtil[in.IOYard] = models.Clamp01(in.BWUtil)
		return IntentResult{Intent: in}
	case IntentModMutation:
		// A mod mutation is accepted and recorded in the tick's results,
		// but no mutation is applied to the store, and no control-plane
		// route enqueues this intent kind or runs it through pkg/modcap.
		return IntentResult{Intent: in}
	default:
		return IntentResult{Intent: in, Rejected: true, Reason: "unknown intent kind"}
	}
}

func (s *Session) applySubmitJob(in Intent) IntentResult {
	p, ok := s.Store.Pipelines[in.PipelineID]
	if !ok {
		return IntentResult{Intent: in, Rejected: true, Reason: "unknown pipeline"}
	}
	if admitted, reason := s.backpressure.Admit(p); !admitted {
		return IntentResult{Intent: in, Rejected: true, Reason: string(reason)}
	}

	id := models.JobID(s.Store.JobIDs.Next())
	deadline := s.CurrentTick + ceilDivInt64(in.DeadlineMs, s.Cfg.TickMs)
	job := models.NewJob(id, in.PipelineID, s.CurrentTick, deadline, in.PayloadSz)
	s.Store.Jobs[id] = job
	return IntentResult{Intent: in}
}

func ceilDivInt64(a, b int64) int64 {
	if b <= 0 {
		return 0
	}
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

func (s *Session) applyMaintenanceStart(in Intent) IntentResult {
	y, ok := s.Store.Workyards[in.MaintenanceYard]
	if !ok {
		return IntentResult{Intent: in, Rejected: true, Reason: "unknown workyard"}
	}
	y.StartMaintenance(in.MaintenanceTicks, in.MaintenanceEffect)
	return IntentResult{Intent: in}
}

func (s *Session) applyReimageWorker(in Intent) IntentResult {
	w, ok := s.Store.Workers[in.ReimageWorker]
	if !ok {
		return IntentResult{Intent: in, Rejected: true, Reason: "unknown worker"}
	}
	w.Reimage()
	s.Store.Corruption.Set(w.ID, 0)
	return IntentResult{Intent: in}
}

func (s *Session) applyForceFireEvent(in Intent) IntentResult {
	e, ok := s.Store.Events[in.EventID]
	if !ok {
		return IntentResult{Intent: in, Rejected: true, Reason: "unknown event"}
	}
	e.State = models.EventEligible
	return IntentResult{Intent: in}
}

// applySetCorruptionConfig applies a partial patch of corruption
// tunables; only keys present in the patch are overridden.
func (s *Session) applySetCorruptionConfig(in Intent) {
	p := in.ConfigPatch
	if v, ok := p["corruption_step_up"]; ok {
		s.Cfg.CorruptionStepUp = v
	}
	if v, ok := p["corruption_decay"]; ok {
		s.Cfg.CorruptionDecay = v
	}
	if v, ok := p["corruption_recover_boost"]; ok {
		s.Cfg.CorruptionRecoverBoost = v
	}
	if v, ok := p["global_coupling"]; ok {
		s.Cfg.GlobalCoupling = v
	}
	if v, ok := p["global_decay"]; ok {
		s.Cfg.GlobalDecay = v
	}
	if v, ok := p["soft_cap"]; ok {
		s.Cfg.SoftCap = v
	}
}

// applySetGPUConfig applies a partial patch of GPU farm tunables and,
// when GPUOpKind is set, replaces that op's kernel profile wholesale
// (used for both gpu/tunables and gpu/flags control-plane requests).
func (s *Session) applySetGPUConfig(in Intent) {
	p := in.ConfigPatch
	if v, ok := p["pcie_gbps"]; ok {
		s.Cfg.PCIeGbps = v
	}
	if v, ok := p["vram_bytes"]; ok {
		s.farm.VRAMBytes = int64(v)
	}
	if v, ok := p["batch_max"]; ok {
		s.farm.BatchMax = int(v)
	}
	if v, ok := p["batch_timeout_ticks"]; ok {
		s.farm.BatchTimeout = int64(v)
	}
	if in.GPUOpKind != "" {
		if s.Cfg.KernelProfiles == nil {
			s.Cfg.KernelProfiles = map[models.OpKind]gpubatch.KernelProfile{}
		}
		s.Cfg.KernelProfiles[in.GPUOpKind] = in.GPUProfile
	}
}

func (s *Session) applyUnlockResearch(in Intent) IntentResult {
	if s.Store.Research.IsUnlocked(in.TechID) {
		return IntentResult{Intent: in, Rejected: true, Reason: "already unlocked"}
	}
	s.Store.Research.Start(in.TechID, in.TechTicks)
	return IntentResult{Intent: in}
}

func (s *Session) applyStartRitual(in Intent) IntentResult {
	if _, ok := s.Store.Workyards[in.RitualYard]; !ok {
		return IntentResult{Intent: in, Rejected: true, Reason: "unknown workyard"}
	}
	if _, active := s.rituals[in.RitualID]; active {
		return IntentResult{Intent: in, Rejected: true, Reason: "ritual already active"}
	}
	s.rituals[in.RitualID] = startRitual(in.RitualYard, in.RitualParts, in.RitualTotalTicks)
	return IntentResult{Intent: in}
}

// startRitual wires a maintenance yard's ritual into the research
// package's multi-part advancer; applyStartRitual calls it while the
// tick applies a start_ritual intent, and the tick loop then advances
// the ritual once per session tick.
func startRitual(yard models.WorkyardID, parts int, totalTicks int64) *research.Ritual {
	return research.NewRitual(yard, parts, totalTicks)
}
