package corruption

import (
	"testing"

	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestUpdateWorkerClampsToOne(t *testing.T) {
	next := UpdateWorker(0.9, WorkerUpdate{FaultImpulseSum: 0.5})
	assert.Equal(t, 1.0, next)
}

func TestUpdateWorkerClampsToZero(t *testing.T) {
	next := UpdateWorker(0.01, WorkerUpdate{DecayPerTick: 0.5})
	assert.Equal(t, 0.0, next)
}

func TestUpdateWorkerCombinesTerms(t *testing.T) {
	next := UpdateWorker(0.2, WorkerUpdate{
		StressPressure:  0.5,
		StepUp:          0.1,
		DecayPerTick:    0.02,
		RecoverBoost:    0.01,
		RecoveredTicks:  2,
		FaultImpulseSum: 0.05,
	})
	// 0.2 + 0.05 + 0.5*0.1 - 0.02 - 0.01*2 = 0.2+0.05+0.05-0.02-0.02 = 0.26
	assert.InDelta(t, 0.26, next, 1e-9)
}

func TestUpdateGlobal(t *testing.T) {
	next := UpdateGlobal(0.1, GlobalUpdate{MeanPerWorker: 0.4, Coupling: 0.5, DecayPerTick: 0.05})
	assert.InDelta(t, 0.25, next, 1e-9)
}

func TestMeanPerWorkerEmptyFieldIsZero(t *testing.T) {
	f := models.NewCorruptionField()
	assert.Equal(t, 0.0, MeanPerWorker(f))
}

func TestMeanPerWorker(t *testing.T) {
	f := models.NewCorruptionField()
	f.Set(1, 0.2)
	f.Set(2, 0.6)
	assert.InDelta(t, 0.4, MeanPerWorker(f), 1e-9)
}

func TestAboveSoftCap(t *testing.T) {
	assert.True(t, AboveSoftCap(0.9, 0.8))
	assert.False(t, AboveSoftCap(0.5, 0.8))
}
