package tick

import (
	"sort"

	"github.com/blackswan-colony/simcore/pkg/blackswan"
	"github.com/blackswan-colony/simcore/pkg/budget"
	"github.com/blackswan-colony/simcore/pkg/corruption"
	"github.com/blackswan-colony/simcore/pkg/exec"
	"github.com/blackswan-colony/simcore/pkg/gpubatch"
	"github.com/blackswan-colony/simcore/pkg/kpi"
	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/research"
	"github.com/blackswan-colony/simcore/pkg/rng"
	"github.com/blackswan-colony/simcore/pkg/scheduler"
)

// Config bundles the scenario tunables a Session needs to run its tick
// pipeline; everything here is data, not behavior, and is loaded from
// the scenario definition.
type Config struct {
	TickMs                 int64
	ScenarioDifficultyMult float64
	BaseBandwidthCap       float64
	BaseFaultRate          float64
	HeatWeight             float64
	BWWeight               float64
	StarvationWeight       float64
	CorruptionPenalty      float64
	MaxRetries             int
	RetryBackoffTicks      int
	OpCost                 scheduler.OpCost
	KernelProfiles         map[models.OpKind]gpubatch.KernelProfile
	PCIeGbps               float64
	CorruptionStepUp       float64
	CorruptionDecay        float64
	CorruptionRecoverBoost float64
	GlobalCoupling         float64
	GlobalDecay            float64
	SoftCap                float64
	KPICapacities          []int64
	PowerPerWorker         float64 // watts drawn by one running worker; 0 disables power throttling
	VRAMBytes              int64
	BatchMax               int
	BatchTimeoutTicks      int64
}

// Session is one authoritative, running play session: entity store,
// intent queue, RNG registry, GPU farm, KPI windows, Black Swan roster
// and the clock/victory-loss evaluator, tied together by Tick.
type Session struct {
	Store     *Store
	Queue     *IntentQueue
	RNG       *rng.Registry
	Clock     *Clock
	Evaluator Evaluator
	Autosave  AutosavePolicy
	State     SessionState
	Cfg       Config

	CurrentTick int64

	backpressure *scheduler.Backpressure
	schedPolicy  scheduler.PolicyKind
	farm         *gpubatch.Farm
	kpiWindows   map[string]*kpi.Window
	illusions    map[string]float64
	priorDeficit map[models.WorkyardID]bool
	starvation   map[models.WorkyardID]float64
	opProgress   map[models.JobID]float64
	defaultCap   map[string]int64
	rituals      map[string]*research.Ritual
	ioUtil       map[models.WorkyardID]float64
	deficitCount int
}

// NewSession creates a fresh session rooted at a scenario seed.
func NewSession(scenarioSeed, sessionID uint64, cfg Config) *Session {
	farm := gpubatch.NewFarm(cfg.VRAMBytes, cfg.BatchMax, cfg.BatchTimeoutTicks)
	s := &Session{
		Store:        NewStore(),
		Queue:        NewIntentQueue(),
		RNG:          rng.New(scenarioSeed, sessionID),
		Clock:        NewClock(),
		State:        SessionRunning,
		Cfg:          cfg,
		backpressure: scheduler.NewBackpressure(),
		schedPolicy:  scheduler.PolicyFCFS,
		farm:         farm,
		kpiWindows:   map[string]*kpi.Window{},
		illusions:    map[string]float64{},
		priorDeficit: map[models.WorkyardID]bool{},
		starvation:   map[models.WorkyardID]float64{},
		opProgress:   map[models.JobID]float64{},
		defaultCap:   map[string]int64{},
		rituals:      map[string]*research.Ritual{},
		ioUtil:       map[models.WorkyardID]float64{},
	}
	for _, capTicks := range cfg.KPICapacities {
		s.window(throughputMetric, capTicks, kpi.AggSum)
		s.window(deadlineMissMetric, capTicks, kpi.AggSum)
		s.window(corruptionMetric, capTicks, kpi.AggAvg)
		s.window(powerDeficitMetric, capTicks, kpi.AggSum)
	}
	return s
}

const (
	throughputMetric   = "throughput"
	deadlineMissMetric = "deadline_misses"
	corruptionMetric   = "corruption_field"
	powerDeficitMetric = "power_deficit"
)

func (s *Session) window(name string, capTicks int64, agg kpi.Aggregate) *kpi.Window {
	key := windowKey(name, capTicks)
	if w, ok := s.kpiWindows[key]; ok {
		return w
	}
	w := kpi.NewWindow(name, capTicks, agg)
	s.kpiWindows[key] = w
	if _, ok := s.defaultCap[name]; !ok {
		s.defaultCap[name] = capTicks
	}
	return w
}

func windowKey(name string, capTicks int64) string {
	return name + ":" + itoa(capTicks)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// metricSource adapts the session's KPI windows to blackswan.MetricSource
// and the victory/loss evaluator's metric lookup. windowTicks==0 resolves
// to the metric's first-registered capacity, a fixed mapping recorded at
// window creation so the choice never depends on map iteration order.
type metricSource struct{ s *Session }

func (m metricSource) Value(metric string, windowTicks int64) (float64, bool) {
	if windowTicks == 0 {
		capTicks, ok := m.s.defaultCap[metric]
		if !ok {
			return 0, false
		}
		windowTicks = capTicks
	}
	w, ok := m.s.kpiWindows[windowKey(metric, windowTicks)]
	if !ok {
		return 0, false
	}
	return w.Value(), true
}

// MetricValue resolves one KPI metric's rolling-window value, for
// control-plane read endpoints outside the tick package. windowTicks=0
// resolves to the metric's default (first-registered) capacity.
func (s *Session) MetricValue(metric string, windowTicks int64) (float64, bool) {
	return metricSource{s: s}.Value(metric, windowTicks)
}

// Tick advances the world by exactly one simulated tick, running the
// fixed step order: intents, budgeting, scheduling, execution,
// corruption, KPI roll, Black Swan evaluation, research/debt tick,
// victory/loss check. The caller is responsible for replay log
// emission (step 10), since that crosses into the store package.
func (s *Session) Tick(cutoffSeq uint64) []IntentResult {
	s.CurrentTick++
	tick := s.CurrentTick

	results := s.applyIntents(cutoffSeq)
	debtMults := s.computeDebtMultipliers()
	caps := s.budgetStep(debtMults)
	assignments := s.scheduleStep(caps)
	s.executeStep(assignments, tick, debtMults)
	s.recordPowerDraw(caps)
	s.gpuBatchStep(tick)
	s.corruptionStep()
	s.kpiRollStep(tick)
	s.blackSwanStep()
	s.cureStep()
	s.researchStep()
	s.victoryLossStep()

	return results
}

func (s *Session) computeDebtMultipliers() budget.DebtMultipliers {
	d := budget.NewDebtMultipliers()
	for _, debt := range s.Store.DebtsByID() {
		d.Apply(debt)
	}
	return d
}

// budgetStep resolves this tick's effective caps per workyard,
// carrying forward whether last tick's actual power draw (recorded by
// recordPowerDraw) exceeded the cap it was measured against, and tallies
// how many yards are currently in a power-deficit tick for kpiRollStep
// to push.
func (s *Session) budgetStep(debts budget.DebtMultipliers) map[models.WorkyardID]budget.EffectiveCaps {
	a := budget.NewAccountant(s.Cfg.ScenarioDifficultyMult, s.Cfg.BaseBandwidthCap)
	caps := make(map[models.WorkyardID]budget.EffectiveCaps, len(s.Store.Workyards))
	s.deficitCount = 0
	for _, y := range s.Store.WorkyardsByID() {
		c := a.Compute(y, debts, s.priorDeficit[y.ID])
		caps[y.ID] = c
		if c.PowerDeficitTick {
			s.deficitCount++
		}
	}
	return caps
}

func (s *Session) scheduleStep(caps map[models.WorkyardID]budget.EffectiveCaps) []scheduler.Assignment {
	var all []scheduler.Assignment
	sched := scheduler.NewScheduler(s.schedPolicy, s.Cfg.OpCost)
	for _, y := range s.Store.WorkyardsByID() {
		if y.InMaintenance() {
			s.starvation[y.ID] = 0
			continue
		}
		ready := scheduler.ReadyQueue(s.Store.JobsByID(), s.Store.Pipelines, y.Class)
		idle := s.Store.IdleWorkersInYard(y.ID)
		assignments := sched.Select(ready, idle, s.Store.Pipelines)
		assignments = s.throttleByPower(y, assignments, caps[y.ID])

		unmet := len(ready) - len(assignments)
		if unmet < 0 {
			unmet = 0
		}
		denom := len(ready)
		if denom == 0 {
			denom = 1
		}
		s.starvation[y.ID] = models.Clamp01(float64(unmet) / float64(denom))

		for _, a := range assignments {
			a.Job.State.Phase = models.JobRunning
			a.Job.AssignedTo = a.Worker.ID
			a.Job.HasAssignment = true
			a.Worker.State = models.WorkerState{Phase: models.WorkerRunning, JobID: a.Job.ID, OpIndex: a.Job.OpCursor}
		}
		all = append(all, assignments...)
	}
	return all
}

// throttleByPower truncates a workyard's deterministically-ordered
// assignments to however many more running workers its effective power
// cap still has headroom for, so a yard never silently overdraws; the
// jobs left unassigned stay Queued for the next tick's scheduling pass.
func (s *Session) throttleByPower(y *models.Workyard, assignments []scheduler.Assignment, caps budget.EffectiveCaps) []scheduler.Assignment {
	if s.Cfg.PowerPerWorker <= 0 {
		return assignments
	}
	running := 0
	for _, w := range s.Store.WorkersByID() {
		if w.YardID == y.ID && w.State.Phase == models.WorkerRunning {
			running++
		}
	}
	headroom := caps.PowerCap - float64(running)*s.Cfg.PowerPerWorker
	if headroom <= 0 {
		return nil
	}
	maxNew := int(headroom / s.Cfg.PowerPerWorker)
	if maxNew >= len(assignments) {
		return assignments
	}
	return assignments[:maxNew]
}

// recordPowerDraw tallies each workyard's actual power draw for this
// tick (one PowerPerWorker per currently-running worker) and compares
// it against the cap that governed this tick's scheduling, so next
// tick's budgetStep can mark the following tick a power-deficit tick.
// Budget closure (never silently overdraw) is enforced earlier by
// throttleByPower; this only detects the rare case where workers already
// running before a debt/difficulty change leaves the yard over cap.
func (s *Session) recordPowerDraw(caps map[models.WorkyardID]budget.EffectiveCaps) {
	draw := map[models.WorkyardID]float64{}
	for _, w := range s.Store.WorkersByID() {
		if w.State.Phase == models.WorkerRunning {
			draw[w.YardID] += s.Cfg.PowerPerWorker
		}
	}
	for _, y := range s.Store.WorkyardsByID() {
		y.PowerDraw = draw[y.ID]
		s.priorDeficit[y.ID] = caps[y.ID].PowerCap > 0 && y.PowerDraw > caps[y.ID].PowerCap
	}
}

func (s *Session) executeStep(assignments []scheduler.Assignment, tick int64, debts budget.DebtMultipliers) {
	faultStream := s.RNG.Stream(rng.StreamFault)
	cfg := exec.Config{MaxRetries: s.Cfg.MaxRetries, RetryBackoffTicks: s.Cfg.RetryBackoffTicks}

	for _, w := range s.Store.WorkersByID() {
		if w.State.Phase != models.WorkerRunning {
			continue
		}
		job, ok := s.Store.Jobs[w.State.JobID]
		if !ok {
			continue
		}
		pipe, ok := s.Store.Pipelines[job.PipelineID]
		if !ok || job.OpCursor >= len(pipe.Ops) {
			continue
		}
		op := pipe.Ops[job.OpCursor]
		if op.IsGPU() {
			s.enqueueGPU(job, w, op, tick)
			continue
		}

		yard := s.Store.Workyards[w.YardID]
		bwUtil := s.ioUtil[w.YardID]
		rate := exec.EffectiveRate(exec.RateInputs{
			BaseRate:              1,
			WorkerSkill:           w.Skill(op),
			ThermalThrottle:       yardThrottle(yard),
			BandwidthAvailability: budget.BandwidthAvailability(bwUtil*s.Cfg.BaseBandwidthCap, s.Cfg.BaseBandwidthCap),
			WorkerCorruption:      w.Corruption,
			CorruptionPenalty:     s.Cfg.CorruptionPenalty,
		})
		faultProb := exec.FaultProbability(exec.FaultRiskInputs{
			BaseFaultRate:     s.Cfg.BaseFaultRate,
			HeatWeight:        s.Cfg.HeatWeight,
			HeatNorm:          yardHeatNorm(yard),
			BWWeight:          s.Cfg.BWWeight,
			BWUtil:            bwUtil,
			StarvationWeight:  s.Cfg.StarvationWeight,
			Starvation:        s.starvation[w.YardID],
			DebtFaultRateMult: debts.FaultRateMult,
			WorkerCorruption:  w.Corruption,
		})

		progressF := s.opProgress[job.ID]
		res := exec.Step(cfg, job, w, pipe, tick, s.Cfg.OpCost(op, job.PayloadSz), rate, faultProb, &progressF, faultStream)
		if res.Finished || res.OpAdvanced {
			delete(s.opProgress, job.ID)
		} else {
			s.opProgress[job.ID] = progressF
		}
		if res.Finished {
			s.backpressure.Release(job.PipelineID)
		}
	}
}

func yardThrottle(y *models.Workyard) float64 {
	if y == nil {
		return 1
	}
	return y.ThermalThrottleFactor
}

func yardHeatNorm(y *models.Workyard) float64 {
	if y == nil {
		return 0
	}
	return y.HeatNorm()
}

func (s *Session) enqueueGPU(job *models.Job, w *models.Worker, op models.OpKind, tick int64) {
	newID := func() string { return string(op) + "-" + itoa(tick) + "-" + itoa(int64(job.ID)) }
	b := s.farm.OpenBatchFor(op, tick, newID)
	s.farm.Enqueue(b, job.ID, job.OpCursor, job.PayloadSz)
	s.Store.GpuBatches[b.ID] = b
	w.State = models.WorkerState{Phase: models.WorkerIdle}
}

func (s *Session) gpuBatchStep(tick int64) {
	batches := s.Store.GpuBatchesByID()
	for _, b := range batches {
		if b.State.Phase == models.BatchOpen {
			profile := s.Cfg.KernelProfiles[b.OpKind]
			s.farm.TryLaunch(b, tick, batches, profile, s.Cfg.PCIeGbps, s.Cfg.TickMs)
		}
		if members, completed := gpubatch.Complete(b, tick); completed {
			for _, m := range members {
				if job, ok := s.Store.Jobs[m.JobID]; ok {
					job.OpCursor++
					if job.OpCursor >= len(s.Store.Pipelines[job.PipelineID].Ops) {
						reason := models.FinishOK
						if tick > job.DeadlineTick {
							reason = models.FinishDeadlineMiss
						}
						_ = job.Finish(reason)
						s.backpressure.Release(job.PipelineID)
					}
					if job.HasAssignment {
						if worker, ok := s.Store.Workers[job.AssignedTo]; ok {
							worker.State = models.WorkerState{Phase: models.WorkerIdle}
						}
					}
				}
			}
		}
	}
}

func (s *Session) corruptionStep() {
	for _, w := range s.Store.WorkersByID() {
		stress := corruption.StressPressure(s.Cfg.HeatWeight, yardHeatNorm(s.Store.Workyards[w.YardID]), s.Cfg.BWWeight, s.ioUtil[w.YardID], s.Cfg.StarvationWeight, 0)
		next := corruption.UpdateWorker(w.Corruption, corruption.WorkerUpdate{
			StressPressure: stress,
			StepUp:         s.Cfg.CorruptionStepUp,
			DecayPerTick:   s.Cfg.CorruptionDecay,
			RecoverBoost:   s.Cfg.CorruptionRecoverBoost,
		})
		w.Corruption = next
		s.Store.Corruption.Set(w.ID, next)
	}
	mean := corruption.MeanPerWorker(s.Store.Corruption)
	s.Store.Corruption.Global = corruption.UpdateGlobal(s.Store.Corruption.Global, corruption.GlobalUpdate{
		MeanPerWorker: mean,
		Coupling:      s.Cfg.GlobalCoupling,
		DecayPerTick:  s.Cfg.GlobalDecay,
	})
}

func (s *Session) kpiRollStep(tick int64) {
	var finished, missed int
	for _, j := range s.Store.JobsByID() {
		if j.State.Phase == models.JobFinished {
			switch j.State.FinishReason {
			case models.FinishOK:
				finished++
			case models.FinishDeadlineMiss, models.FinishDropped:
				missed++
			}
		}
	}
	for _, capTicks := range s.Cfg.KPICapacities {
		s.window(throughputMetric, capTicks, kpi.AggSum).Push(tick, float64(finished))
		s.window(deadlineMissMetric, capTicks, kpi.AggSum).Push(tick, float64(missed))
		s.window(corruptionMetric, capTicks, kpi.AggAvg).Push(tick, s.Store.Corruption.Global)
		s.window(powerDeficitMetric, capTicks, kpi.AggSum).Push(tick, float64(s.deficitCount))
	}
}

func (s *Session) blackSwanStep() {
	src := metricSource{s: s}
	events := s.Store.EventsByID()
	blackswan.AdvanceDormant(events, src)

	picked := blackswan.PickEligible(events, s.Cfg.ScenarioDifficultyMult, s.RNG.Stream(rng.StreamBlackSwan))
	if picked == nil {
		return
	}

	pipelines := func(selector string) []*models.Pipeline {
		if selector == "*" {
			return pipelineValues(s.Store.Pipelines)
		}
		if p, ok := s.Store.Pipelines[selector]; ok {
			return []*models.Pipeline{p}
		}
		return nil
	}
	workers := func(class models.WorkerClass) []*models.Worker { return s.Store.WorkersOfClass(class) }
	debts := func(signal models.DebtSignal, magnitude float64, duration int64) string {
		id := picked.ID + ":" + string(signal)
		s.Store.Debts[id] = &models.Debt{ID: id, SourceEventID: picked.ID, Signal: signal, Magnitude: magnitude, RemainingTicks: duration}
		return id
	}
	illusions := func(signal string, offset float64, _ int64) {
		s.illusions[signal] = offset
	}

	blackswan.Fire(picked, pipelines, workers, debts, illusions)
	if picked.Cure != nil {
		blackswan.StartCure(picked)
		s.rituals[picked.ID] = research.NewRitual(0, picked.Cure.Parts, picked.Cure.TotalTicks)
	}
}

// cureStep advances every active ritual by one tick, in canonical
// ritual-id order. Rituals keyed by a fired event's id drive that
// event's cure lifecycle (AdvanceCure, debt reversion on completion);
// rituals started directly by a rituals/{id}/start request (keyed by
// their own id) just run to completion, e.g. scenario-authored
// maintenance unrelated to any Black Swan event.
func (s *Session) cureStep() {
	ids := make([]string, 0, len(s.rituals))
	for id := range s.rituals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rt := s.rituals[id]
		e, tiedToEvent := s.Store.Events[id]
		if !tiedToEvent || e.State != models.EventFired {
			if !tiedToEvent {
				if _, allDone := rt.Advance(); allDone {
					delete(s.rituals, id)
				}
			}
			continue
		}
		partDone, allDone := rt.Advance()
		cured := blackswan.AdvanceCure(e, partDone)
		if allDone || cured {
			delete(s.rituals, id)
		}
		if cured {
			for _, debtID := range blackswan.RevertDebts(e) {
				delete(s.Store.Debts, debtID)
			}
		}
	}
}

func pipelineValues(m map[string]*models.Pipeline) []*models.Pipeline {
	out := make([]*models.Pipeline, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	return out
}

func (s *Session) researchStep() {
	s.Store.Research.Tick()
	expired := research.TickDebts(s.Store.DebtsByID())
	for _, id := range expired {
		delete(s.Store.Debts, id)
	}
	for _, y := range s.Store.WorkyardsByID() {
		y.TickMaintenance()
	}
}

func (s *Session) victoryLossStep() {
	src := metricSource{s: s}
	state := s.Evaluator.Check(func(name string) (float64, bool) { return src.Value(name, 0) })
	if state != SessionRunning {
		s.State = state
	}
}
