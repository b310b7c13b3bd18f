package scheduler

import (
	"testing"

	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitCost(_ models.OpKind, payloadSz int64) float64 { return float64(payloadSz) }

func TestFCFSOrdersBySubmittedTickThenID(t *testing.T) {
	j1 := models.NewJob(2, "p", 5, 100, 10)
	j2 := models.NewJob(1, "p", 3, 100, 10)
	j3 := models.NewJob(3, "p", 3, 100, 10)

	ordered := fcfsPolicy{}.Order([]Candidate{{Job: j1}, {Job: j2}, {Job: j3}}, unitCost)

	require.Len(t, ordered, 3)
	assert.Equal(t, models.JobID(1), ordered[0].Job.ID)
	assert.Equal(t, models.JobID(3), ordered[1].Job.ID)
	assert.Equal(t, models.JobID(2), ordered[2].Job.ID)
}

func TestEDFOrdersByDeadlineThenID(t *testing.T) {
	j1 := models.NewJob(1, "p", 0, 50, 10)
	j2 := models.NewJob(2, "p", 0, 10, 10)

	ordered := edfPolicy{}.Order([]Candidate{{Job: j1}, {Job: j2}}, unitCost)

	assert.Equal(t, models.JobID(2), ordered[0].Job.ID)
	assert.Equal(t, models.JobID(1), ordered[1].Job.ID)
}

func TestSJFPrefersCheaperEstimate(t *testing.T) {
	expensive := models.NewJob(1, "p", 0, 100, 1000)
	cheap := models.NewJob(2, "p", 0, 100, 1)

	ordered := sjfPolicy{}.Order([]Candidate{{Job: expensive}, {Job: cheap}}, unitCost)

	assert.Equal(t, models.JobID(2), ordered[0].Job.ID)
}

func TestReadyQueueFiltersByOpClassAndCanonicalOrder(t *testing.T) {
	pipelines := map[string]*models.Pipeline{
		"cpu-pipe": {ID: "cpu-pipe", Ops: []models.OpKind{"transform"}},
		"gpu-pipe": {ID: "gpu-pipe", Ops: []models.OpKind{"gpu:infer"}},
	}
	j1 := models.NewJob(5, "cpu-pipe", 0, 100, 10)
	j1.State.Phase = models.JobQueued
	j2 := models.NewJob(2, "gpu-pipe", 0, 100, 10)
	j2.State.Phase = models.JobQueued
	j3 := models.NewJob(1, "cpu-pipe", 0, 100, 10)
	j3.State.Phase = models.JobQueued

	queue := ReadyQueue([]*models.Job{j1, j2, j3}, pipelines, models.ClassCPU)

	require.Len(t, queue, 2)
	assert.Equal(t, models.JobID(1), queue[0].ID)
	assert.Equal(t, models.JobID(5), queue[1].ID)
}

func TestBackpressureRejectsWhenSaturated(t *testing.T) {
	p := &models.Pipeline{ID: "p", PendingCap: 1}
	bp := NewBackpressure()

	ok, reason := bp.Admit(p)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = bp.Admit(p)
	assert.False(t, ok)
	assert.Equal(t, RejectQueueFull, reason)

	bp.Release(p.ID)
	ok, _ = bp.Admit(p)
	assert.True(t, ok)
}

func TestSelectAssignsAtMostOneJobPerWorker(t *testing.T) {
	pipelines := map[string]*models.Pipeline{
		"p": {ID: "p", Ops: []models.OpKind{"transform"}},
	}
	j1 := models.NewJob(1, "p", 0, 100, 10)
	j2 := models.NewJob(2, "p", 0, 100, 10)
	w1 := models.NewWorker(1, models.ClassCPU, 1, nil)
	w2 := models.NewWorker(2, models.ClassCPU, 1, nil)

	s := NewScheduler(PolicyFCFS, unitCost)
	assignments := s.Select([]*models.Job{j1, j2}, []*models.Worker{w1, w2}, pipelines)

	require.Len(t, assignments, 2)
	assert.NotEqual(t, assignments[0].Worker.ID, assignments[1].Worker.ID)
}

func TestHeteroAwarePrefersHigherSkillWorker(t *testing.T) {
	pipelines := map[string]*models.Pipeline{
		"p": {ID: "p", Ops: []models.OpKind{"transform"}},
	}
	j := models.NewJob(1, "p", 0, 100, 10)
	lowSkill := models.NewWorker(1, models.ClassCPU, 1, map[models.OpKind]float64{"transform": 0.2})
	highSkill := models.NewWorker(2, models.ClassCPU, 1, map[models.OpKind]float64{"transform": 1.8})

	s := NewScheduler(PolicyHeteroAware, unitCost)
	assignments := s.Select([]*models.Job{j}, []*models.Worker{lowSkill, highSkill}, pipelines)

	require.Len(t, assignments, 1)
	assert.Equal(t, models.WorkerID(2), assignments[0].Worker.ID)
}
