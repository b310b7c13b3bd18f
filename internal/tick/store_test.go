package tick

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blackswan-colony/simcore/pkg/models"
)

func TestWorkersByIDReturnsAscendingOrder(t *testing.T) {
	s := NewStore()
	s.Workers[3] = models.NewWorker(3, models.ClassCPU, 1, nil)
	s.Workers[1] = models.NewWorker(1, models.ClassCPU, 1, nil)
	s.Workers[2] = models.NewWorker(2, models.ClassCPU, 1, nil)

	out := s.WorkersByID()
	assert.Equal(t, []models.WorkerID{1, 2, 3}, []models.WorkerID{out[0].ID, out[1].ID, out[2].ID})
}

func TestIdleWorkersInYardFiltersByYardAndIdleness(t *testing.T) {
	s := NewStore()
	w1 := models.NewWorker(1, models.ClassCPU, 1, nil)
	w2 := models.NewWorker(2, models.ClassCPU, 1, nil)
	w2.State = models.WorkerState{Phase: models.WorkerRunning}
	w3 := models.NewWorker(3, models.ClassCPU, 2, nil)
	s.Workers[1], s.Workers[2], s.Workers[3] = w1, w2, w3

	idle := s.IdleWorkersInYard(1)
	assert.Len(t, idle, 1)
	assert.Equal(t, models.WorkerID(1), idle[0].ID)
}

func TestWorkersOfClassFiltersAndOrders(t *testing.T) {
	s := NewStore()
	s.Workers[1] = models.NewWorker(1, models.ClassGPU, 1, nil)
	s.Workers[2] = models.NewWorker(2, models.ClassCPU, 1, nil)
	s.Workers[3] = models.NewWorker(3, models.ClassGPU, 1, nil)

	gpu := s.WorkersOfClass(models.ClassGPU)
	assert.Len(t, gpu, 2)
	assert.Equal(t, models.WorkerID(1), gpu[0].ID)
	assert.Equal(t, models.WorkerID(3), gpu[1].ID)
}

func TestPipelinesByIDSortedByStringID(t *testing.T) {
	s := NewStore()
	s.Pipelines["zeta"] = &models.Pipeline{ID: "zeta"}
	s.Pipelines["alpha"] = &models.Pipeline{ID: "alpha"}
	out := s.PipelinesByID()
	assert.Equal(t, "alpha", out[0].ID)
	assert.Equal(t, "zeta", out[1].ID)
}

func TestGpuBatchesByIDSortedByStringID(t *testing.T) {
	s := NewStore()
	s.GpuBatches["b2"] = &models.GpuBatch{ID: "b2"}
	s.GpuBatches["b1"] = &models.GpuBatch{ID: "b1"}
	out := s.GpuBatchesByID()
	assert.Equal(t, "b1", out[0].ID)
	assert.Equal(t, "b2", out[1].ID)
}

func TestDebtsAndEventsByIDAreSortedByStringID(t *testing.T) {
	s := NewStore()
	s.Debts["b"] = &models.Debt{ID: "b"}
	s.Debts["a"] = &models.Debt{ID: "a"}
	out := s.DebtsByID()
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}
