// Package tick owns the authoritative world state and the fixed-order
// tick pipeline that advances it: intent application, resource
// budgeting, scheduling, execution, corruption, KPI rolling, Black
// Swan evaluation, research/debt ticking, victory/loss check and
// replay log emission.
package tick

import (
	"sort"

	"github.com/blackswan-colony/simcore/pkg/models"
)

// Store indexes every entity by stable id and provides canonical
// (ascending id) iteration wherever the tick pipeline needs a
// deterministic traversal order.
type Store struct {
	Workers    map[models.WorkerID]*models.Worker
	Workyards  map[models.WorkyardID]*models.Workyard
	Pipelines  map[string]*models.Pipeline
	Jobs       map[models.JobID]*models.Job
	GpuBatches map[string]*models.GpuBatch
	Debts      map[string]*models.Debt
	Events     map[string]*models.BlackSwanEvent
	Corruption *models.CorruptionField
	Research   *models.Research

	WorkerIDs   *models.IDAllocator
	WorkyardIDs *models.IDAllocator
	JobIDs      *models.IDAllocator
}

// NewStore creates an empty store with fresh id allocators.
func NewStore() *Store {
	return &Store{
		Workers:    map[models.WorkerID]*models.Worker{},
		Workyards:  map[models.WorkyardID]*models.Workyard{},
		Pipelines:  map[string]*models.Pipeline{},
		Jobs:       map[models.JobID]*models.Job{},
		GpuBatches: map[string]*models.GpuBatch{},
		Debts:      map[string]*models.Debt{},
		Events:     map[string]*models.BlackSwanEvent{},
		Corruption: models.NewCorruptionField(),
		Research:   models.NewResearch(),

		WorkerIDs:   models.NewIDAllocator(0),
		WorkyardIDs: models.NewIDAllocator(0),
		JobIDs:      models.NewIDAllocator(0),
	}
}

// WorkersByID returns every worker in ascending id order.
func (s *Store) WorkersByID() []*models.Worker {
	out := make([]*models.Worker, 0, len(s.Workers))
	for _, w := range s.Workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WorkyardsByID returns every workyard in ascending id order.
func (s *Store) WorkyardsByID() []*models.Workyard {
	out := make([]*models.Workyard, 0, len(s.Workyards))
	for _, y := range s.Workyards {
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// JobsByID returns every job in ascending id order.
func (s *Store) JobsByID() []*models.Job {
	out := make([]*models.Job, 0, len(s.Jobs))
	for _, j := range s.Jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EventsByID returns every Black Swan event in ascending (string) id
// order.
func (s *Store) EventsByID() []*models.BlackSwanEvent {
	out := make([]*models.BlackSwanEvent, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DebtsByID returns every debt in ascending (string) id order.
func (s *Store) DebtsByID() []*models.Debt {
	out := make([]*models.Debt, 0, len(s.Debts))
	for _, d := range s.Debts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PipelinesByID returns every pipeline in ascending (string) id order.
func (s *Store) PipelinesByID() []*models.Pipeline {
	out := make([]*models.Pipeline, 0, len(s.Pipelines))
	for _, p := range s.Pipelines {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GpuBatchesByID returns every GPU batch in ascending (string) id
// order.
func (s *Store) GpuBatchesByID() []*models.GpuBatch {
	out := make([]*models.GpuBatch, 0, len(s.GpuBatches))
	for _, b := range s.GpuBatches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WorkersOfClass returns every worker of a class, in ascending id
// order -- the canonical-order subset Black Swan worker.stick effects
// and HeteroAware scheduling read.
func (s *Store) WorkersOfClass(class models.WorkerClass) []*models.Worker {
	var out []*models.Worker
	for _, w := range s.WorkersByID() {
		if w.Class == class {
			out = append(out, w)
		}
	}
	return out
}

// IdleWorkersInYard returns idle workers hosted by a workyard, in
// ascending id order.
func (s *Store) IdleWorkersInYard(yard models.WorkyardID) []*models.Worker {
	var out []*models.Worker
	for _, w := range s.WorkersByID() {
		if w.YardID == yard && w.State.Idle() {
			out = append(out, w)
		}
	}
	return out
}
