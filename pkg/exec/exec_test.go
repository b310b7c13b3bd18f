package exec

import (
	"testing"

	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveRateFormula(t *testing.T) {
	r := EffectiveRate(RateInputs{
		BaseRate:              10,
		WorkerSkill:           1.5,
		ThermalThrottle:       0.5,
		BandwidthAvailability: 1,
		WorkerCorruption:      0.2,
		CorruptionPenalty:     0.5,
	})
	// 10 * 1.5 * 0.5 * 1 * (1 - 0.2*0.5) = 7.5 * 0.9 = 6.75
	assert.InDelta(t, 6.75, r, 1e-9)
}

func TestFaultProbabilityClampedToOne(t *testing.T) {
	p := FaultProbability(FaultRiskInputs{BaseFaultRate: 2, WorkerCorruption: 5})
	assert.Equal(t, 1.0, p)
}

func TestStepAdvancesOpWhenNoFault(t *testing.T) {
	j := models.NewJob(1, "p", 0, 100, 10)
	j.State.Phase = models.JobRunning
	w := models.NewWorker(1, models.ClassCPU, 1, nil)
	w.State = models.WorkerState{Phase: models.WorkerRunning, JobID: j.ID}
	p := &models.Pipeline{ID: "p", Ops: []models.OpKind{"a", "b"}}

	registry := rng.New(1, 1)
	progress := 0.0
	res := Step(Config{MaxRetries: 3, RetryBackoffTicks: 5}, j, w, p, 0, 10, 10, 0, &progress, registry.Stream(rng.StreamFault))

	require.True(t, res.OpAdvanced)
	assert.False(t, res.Finished)
	assert.Equal(t, 1, j.OpCursor)
}

func TestStepFinishesOnLastOp(t *testing.T) {
	j := models.NewJob(1, "p", 0, 100, 10)
	j.State.Phase = models.JobRunning
	j.OpCursor = 0
	w := models.NewWorker(1, models.ClassCPU, 1, nil)
	w.State = models.WorkerState{Phase: models.WorkerRunning, JobID: j.ID}
	p := &models.Pipeline{ID: "p", Ops: []models.OpKind{"a"}}

	registry := rng.New(1, 1)
	progress := 0.0
	res := Step(Config{MaxRetries: 3, RetryBackoffTicks: 5}, j, w, p, 0, 10, 10, 0, &progress, registry.Stream(rng.StreamFault))

	require.True(t, res.Finished)
	assert.Equal(t, models.FinishOK, res.FinishedAs)
	assert.True(t, j.IsTerminal())
	assert.True(t, w.State.Idle())
}

func TestApplyFaultKindTransientRetriesUntilMaxThenDrops(t *testing.T) {
	cfg := Config{MaxRetries: 1, RetryBackoffTicks: 3}
	j := models.NewJob(1, "p", 0, 100, 10)
	j.State.Phase = models.JobRunning
	w := models.NewWorker(1, models.ClassCPU, 1, nil)

	res := ApplyFaultKind(cfg, j, w, models.FaultTransient)
	assert.True(t, res.Faulted)
	assert.Equal(t, models.JobRetrying, j.State.Phase)

	_ = j.TransitionTo(models.JobRunning)
	res = ApplyFaultKind(cfg, j, w, models.FaultTransient)
	assert.True(t, res.Finished)
	assert.Equal(t, models.FinishDropped, res.FinishedAs)
}

func TestApplyFaultKindStickyConfigMarksWorkerFaulted(t *testing.T) {
	cfg := Config{MaxRetries: 3, RetryBackoffTicks: 5}
	j := models.NewJob(1, "p", 0, 100, 10)
	w := models.NewWorker(1, models.ClassCPU, 1, nil)

	ApplyFaultKind(cfg, j, w, models.FaultStickyConfig)

	assert.True(t, w.StickyFaults[models.FaultStickyConfig])
	assert.Equal(t, models.WorkerFaulted, w.State.Phase)
}

func TestApplyFaultKindQueueDropFinishesDropped(t *testing.T) {
	cfg := Config{MaxRetries: 3, RetryBackoffTicks: 5}
	j := models.NewJob(1, "p", 0, 100, 10)
	j.State.Phase = models.JobRunning
	w := models.NewWorker(1, models.ClassCPU, 1, nil)

	res := ApplyFaultKind(cfg, j, w, models.FaultQueueDrop)

	assert.True(t, res.Finished)
	assert.Equal(t, models.FinishDropped, res.FinishedAs)
}
