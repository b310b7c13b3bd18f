package blackswan

import (
	"testing"

	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource map[string]float64

func (f fakeSource) Value(metric string, _ int64) (float64, bool) {
	v, ok := f[metric]
	return v, ok
}

func TestEvaluateClauseOperators(t *testing.T) {
	src := fakeSource{"bandwidth_util": 0.96}
	assert.True(t, EvaluateClause(src, models.TriggerClause{Metric: "bandwidth_util", Op: models.OpGT, Value: 0.95}))
	assert.False(t, EvaluateClause(src, models.TriggerClause{Metric: "bandwidth_util", Op: models.OpLT, Value: 0.95}))
	assert.False(t, EvaluateClause(src, models.TriggerClause{Metric: "missing", Op: models.OpGT, Value: 0}))
}

func TestEvaluateTriggersRequiresAllClauses(t *testing.T) {
	src := fakeSource{"bandwidth_util": 0.96, "corruption_field": 0.7}
	triggers := []models.TriggerClause{
		{Metric: "bandwidth_util", Op: models.OpGT, Value: 0.95},
		{Metric: "corruption_field", Op: models.OpGT, Value: 0.6},
	}
	assert.True(t, EvaluateTriggers(src, triggers))

	triggers[1].Value = 0.99
	assert.False(t, EvaluateTriggers(src, triggers))
}

func TestAdvanceDormantPromotesToEligible(t *testing.T) {
	src := fakeSource{"heat": 1.0}
	e := models.NewBlackSwanEvent("e1", "overheat", []models.TriggerClause{{Metric: "heat", Op: models.OpGE, Value: 0.9}}, nil, nil, 1)

	AdvanceDormant([]*models.BlackSwanEvent{e}, src)

	assert.Equal(t, models.EventEligible, e.State)
}

func TestPickEligibleOnlyConsidersEligibleEvents(t *testing.T) {
	dormant := models.NewBlackSwanEvent("e1", "d", nil, nil, nil, 5)
	eligible := models.NewBlackSwanEvent("e2", "el", nil, nil, nil, 5)
	eligible.State = models.EventEligible

	reg := rng.New(1, 1)
	picked := PickEligible([]*models.BlackSwanEvent{dormant, eligible}, 1, reg.Stream(rng.StreamBlackSwan))

	require.NotNil(t, picked)
	assert.Equal(t, "e2", picked.ID)
}

func TestPickEligibleReturnsNilWhenNoneEligible(t *testing.T) {
	dormant := models.NewBlackSwanEvent("e1", "d", nil, nil, nil, 5)
	reg := rng.New(1, 1)
	picked := PickEligible([]*models.BlackSwanEvent{dormant}, 1, reg.Stream(rng.StreamBlackSwan))
	assert.Nil(t, picked)
}

func TestFireAppliesDebtEffectAndTracksID(t *testing.T) {
	e := models.NewBlackSwanEvent("e1", "ecc", nil, []models.Effect{
		{Kind: models.EffectDebt, Signal: models.DebtPowerMult, Magnitude: 1.08, DurationTicks: 7},
	}, &models.CureSpec{JobTemplate: "ecc_scrub", Parts: 3, TotalTicks: 24}, 1)
	e.State = models.EventEligible

	var createdID string
	debtSink := func(signal models.DebtSignal, magnitude float64, duration int64) string {
		createdID = "debt-1"
		assert.Equal(t, models.DebtPowerMult, signal)
		assert.Equal(t, 1.08, magnitude)
		assert.Equal(t, int64(7), duration)
		return createdID
	}

	Fire(e, nil, nil, debtSink, func(string, float64, int64) {})

	assert.Equal(t, models.EventFired, e.State)
	assert.Equal(t, []string{"debt-1"}, e.DebtIDs)
}

func TestFireAppliesWorkerStickWithCap(t *testing.T) {
	w1 := models.NewWorker(1, models.ClassCPU, 1, nil)
	w2 := models.NewWorker(2, models.ClassCPU, 1, nil)
	e := models.NewBlackSwanEvent("e1", "stick", nil, []models.Effect{
		{Kind: models.EffectWorkerStick, StickKind: models.FaultStickyConfig, StickClass: models.ClassCPU, StickCap: 1},
	}, nil, 1)
	e.State = models.EventEligible

	workerLookup := func(models.WorkerClass) []*models.Worker { return []*models.Worker{w1, w2} }
	Fire(e, nil, workerLookup, nil, nil)

	assert.True(t, w1.StickyFaults[models.FaultStickyConfig])
	assert.False(t, w2.StickyFaults[models.FaultStickyConfig])
}

func TestCureLifecycle(t *testing.T) {
	e := models.NewBlackSwanEvent("e1", "ecc", nil, nil, &models.CureSpec{JobTemplate: "scrub", Parts: 2, TotalTicks: 4}, 1)
	e.State = models.EventFired

	tmpl := StartCure(e)
	assert.Equal(t, "scrub", tmpl)

	assert.False(t, AdvanceCure(e, true))
	assert.False(t, AdvanceCure(e, false))
	cured := AdvanceCure(e, true)

	assert.True(t, cured)
	assert.Equal(t, models.EventCured, e.State)
}
