package tick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackswan-colony/simcore/pkg/gpubatch"
	"github.com/blackswan-colony/simcore/pkg/kpi"
	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/research"
	"github.com/blackswan-colony/simcore/pkg/scheduler"
)

func testConfig() Config {
	return Config{
		TickMs:                 100,
		ScenarioDifficultyMult: 1,
		BaseBandwidthCap:       1e9,
		BaseFaultRate:          0,
		CorruptionPenalty:      0.5,
		MaxRetries:             2,
		RetryBackoffTicks:      3,
		OpCost:                 func(models.OpKind, int64) float64 { return 1 },
		KernelProfiles:         map[models.OpKind]gpubatch.KernelProfile{},
		PCIeGbps:               10,
		CorruptionStepUp:       0.01,
		CorruptionDecay:        0.01,
		CorruptionRecoverBoost: 0,
		GlobalCoupling:         0.1,
		GlobalDecay:            0.01,
		SoftCap:                0.7,
		KPICapacities:          []int64{60},
	}
}

func newTestSession() *Session {
	s := NewSession(1, 1, testConfig())
	yard := models.NewWorkyard(1, models.ClassCPU, 4, 100, 100)
	s.Store.Workyards[yard.ID] = yard
	worker := models.NewWorker(models.WorkerID(s.Store.WorkerIDs.Next()), models.ClassCPU, yard.ID, nil)
	s.Store.Workers[worker.ID] = worker
	pipe := &models.Pipeline{ID: "p1", Ops: []models.OpKind{"cpu:transform"}, PendingCap: 10}
	s.Store.Pipelines[pipe.ID] = pipe
	return s
}

func TestSubmitJobIntentCreatesQueuedJob(t *testing.T) {
	s := newTestSession()
	s.Queue.Enqueue(Intent{Kind: IntentSubmitJob, PipelineID: "p1", PayloadSz: 10, DeadlineMs: 1000})

	results := s.applyIntents(0)
	require.Len(t, results, 1)
	assert.False(t, results[0].Rejected)
	assert.Len(t, s.Store.Jobs, 1)
}

func TestSubmitJobRejectedWhenPipelineUnknown(t *testing.T) {
	s := newTestSession()
	s.Queue.Enqueue(Intent{Kind: IntentSubmitJob, PipelineID: "missing"})

	results := s.applyIntents(0)
	require.Len(t, results, 1)
	assert.True(t, results[0].Rejected)
}

func TestScheduleStepAssignsQueuedJobToIdleWorker(t *testing.T) {
	s := newTestSession()
	job := models.NewJob(1, "p1", 0, 1000, 10)
	s.Store.Jobs[job.ID] = job

	assignments := s.scheduleStep(s.budgetStep(s.computeDebtMultipliers()))
	require.Len(t, assignments, 1)
	assert.Equal(t, job.ID, assignments[0].Job.ID)
	assert.Equal(t, models.JobRunning, job.State.Phase)
}

func TestTickAdvancesJobToCompletion(t *testing.T) {
	s := newTestSession()
	job := models.NewJob(1, "p1", 0, 1000, 1)
	s.Store.Jobs[job.ID] = job

	for i := 0; i < 5 && job.State.Phase != models.JobFinished; i++ {
		s.Tick(0)
	}

	assert.Equal(t, models.JobFinished, job.State.Phase)
	assert.Equal(t, models.FinishOK, job.State.FinishReason)
}

func TestSwitchSchedulerIntentChangesPolicy(t *testing.T) {
	s := newTestSession()
	s.Queue.Enqueue(Intent{Kind: IntentSwitchScheduler, Policy: scheduler.PolicyEDF})
	s.applyIntents(0)
	assert.Equal(t, scheduler.PolicyEDF, s.schedPolicy)
}

func TestReimageWorkerClearsCorruption(t *testing.T) {
	s := newTestSession()
	var worker *models.Worker
	for _, w := range s.Store.Workers {
		worker = w
	}
	worker.Corruption = 0.8
	s.Store.Corruption.Set(worker.ID, 0.8)

	s.Queue.Enqueue(Intent{Kind: IntentReimageWorker, ReimageWorker: worker.ID})
	s.applyIntents(0)

	assert.Equal(t, 0.0, worker.Corruption)
	assert.Equal(t, 0.0, s.Store.Corruption.Of(worker.ID))
}

func TestBackpressureRejectsSubmitWhenPipelineSaturated(t *testing.T) {
	s := newTestSession()
	s.Store.Pipelines["p1"].PendingCap = 1
	s.Queue.Enqueue(Intent{Kind: IntentSubmitJob, PipelineID: "p1"})
	s.Queue.Enqueue(Intent{Kind: IntentSubmitJob, PipelineID: "p1"})

	results := s.applyIntents(0)
	require.Len(t, results, 2)
	assert.False(t, results[0].Rejected)
	assert.True(t, results[1].Rejected)
}

func TestSetCorruptionConfigIntentAppliesPartialPatch(t *testing.T) {
	s := newTestSession()
	s.Queue.Enqueue(Intent{Kind: IntentSetCorruptionConfig, ConfigPatch: map[string]float64{"corruption_step_up": 0.2}})
	s.applyIntents(0)

	assert.Equal(t, 0.2, s.Cfg.CorruptionStepUp)
	assert.Equal(t, 0.01, s.Cfg.CorruptionDecay) // untouched by the partial patch
}

func TestSetGPUConfigIntentUpdatesFarmAndKernelProfile(t *testing.T) {
	s := newTestSession()
	profile := gpubatch.KernelProfile{BaseKernelTicks: 5, MixedPrecisionSpeedup: 2}
	s.Queue.Enqueue(Intent{
		Kind:        IntentSetGPUConfig,
		ConfigPatch: map[string]float64{"vram_bytes": 1024, "batch_max": 4},
		GPUOpKind:   "gpu:matmul",
		GPUProfile:  profile,
	})
	s.applyIntents(0)

	assert.Equal(t, int64(1024), s.farm.VRAMBytes)
	assert.Equal(t, 4, s.farm.BatchMax)
	assert.Equal(t, profile, s.Cfg.KernelProfiles["gpu:matmul"])
}

func TestUnlockResearchIntentStartsInProgress(t *testing.T) {
	s := newTestSession()
	s.Queue.Enqueue(Intent{Kind: IntentUnlockResearch, TechID: "automation", TechTicks: 3})
	results := s.applyIntents(0)
	require.Len(t, results, 1)
	assert.False(t, results[0].Rejected)
	require.NotNil(t, s.Store.Research.InProgress)
	assert.Equal(t, "automation", s.Store.Research.InProgress.TechID)
}

func TestUnlockResearchIntentRejectsAlreadyUnlocked(t *testing.T) {
	s := newTestSession()
	s.Store.Research.Unlocked["automation"] = true
	s.Queue.Enqueue(Intent{Kind: IntentUnlockResearch, TechID: "automation", TechTicks: 3})
	results := s.applyIntents(0)
	require.Len(t, results, 1)
	assert.True(t, results[0].Rejected)
}

func TestStartRitualIntentRejectsUnknownYard(t *testing.T) {
	s := newTestSession()
	s.Queue.Enqueue(Intent{Kind: IntentStartRitual, RitualID: "r1", RitualYard: 99, RitualParts: 2, RitualTotalTicks: 4})
	results := s.applyIntents(0)
	require.Len(t, results, 1)
	assert.True(t, results[0].Rejected)
}

func TestCureStepAdvancesFiredEventToCuredAndRevertsDebts(t *testing.T) {
	s := newTestSession()
	event := models.NewBlackSwanEvent("ev1", "Test Event", nil, nil, &models.CureSpec{JobTemplate: "cure", Parts: 1, TotalTicks: 1}, 1)
	event.State = models.EventFired
	event.DebtIDs = []string{"ev1:power_mult"}
	s.Store.Events["ev1"] = event
	s.Store.Debts["ev1:power_mult"] = &models.Debt{ID: "ev1:power_mult", Signal: models.DebtPowerMult, Magnitude: 1.5, RemainingTicks: 10}
	s.rituals["ev1"] = research.NewRitual(1, 1, 1)

	s.cureStep()

	assert.Equal(t, models.EventCured, event.State)
	assert.NotContains(t, s.Store.Debts, "ev1:power_mult")
	assert.NotContains(t, s.rituals, "ev1")
}

func TestCureStepAdvancesPlayerStartedRitualIndependentlyOfEvents(t *testing.T) {
	s := newTestSession()
	s.rituals["r1"] = research.NewRitual(1, 1, 1)

	s.cureStep()

	assert.NotContains(t, s.rituals, "r1")
}

func TestSetIOTrafficIntentFeedsCorruptionStressPressure(t *testing.T) {
	s := newTestSession()
	s.Cfg.BWWeight = 1
	s.Queue.Enqueue(Intent{Kind: IntentSetIOTraffic, IOYard: 1, BWUtil: 0.9})
	s.applyIntents(0)
	assert.Equal(t, 0.9, s.ioUtil[models.WorkyardID(1)])
}

func TestMetricSourceResolvesDefaultWindowDeterministically(t *testing.T) {
	s := newTestSession()
	s.window(throughputMetric, 60, kpi.AggSum)
	s.window(throughputMetric, 300, kpi.AggSum)
	m := metricSource{s: s}
	_, ok := m.Value(throughputMetric, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(60), s.defaultCap[throughputMetric])
}
