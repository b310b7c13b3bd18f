package scheduler

import (
	"sort"

	"github.com/blackswan-colony/simcore/pkg/models"
)

// RejectReason names why a submit_job intent could not be admitted.
type RejectReason string

const RejectQueueFull RejectReason = "queue_full"

// Backpressure tracks per-pipeline pending job counts (Queued+Running)
// against each pipeline's configured cap.
type Backpressure struct {
	pending map[string]int
}

// NewBackpressure creates an empty pending-count tracker.
func NewBackpressure() *Backpressure {
	return &Backpressure{pending: map[string]int{}}
}

// Admit reports whether a pipeline can accept one more pending job, and
// if so increments its count. Returns false with RejectQueueFull when
// the pipeline is saturated.
func (b *Backpressure) Admit(p *models.Pipeline) (bool, RejectReason) {
	if p.PendingCap > 0 && b.pending[p.ID] >= p.PendingCap {
		return false, RejectQueueFull
	}
	b.pending[p.ID]++
	return true, ""
}

// Release decrements a pipeline's pending count when a job leaves the
// Queued/Running population (finished, dropped).
func (b *Backpressure) Release(pipelineID string) {
	if b.pending[pipelineID] > 0 {
		b.pending[pipelineID]--
	}
}

// Scheduler assigns ready jobs to idle workers within one workyard
// under a selected policy.
type Scheduler struct {
	Policy PolicyKind
	Cost   OpCost
}

// NewScheduler creates a scheduler with the given starting policy and
// op-cost function.
func NewScheduler(policy PolicyKind, cost OpCost) *Scheduler {
	return &Scheduler{Policy: policy, Cost: cost}
}

// SwitchPolicy changes the policy used by later Select calls. The tick
// pipeline does not call it: it records the policy from a
// switch_scheduler intent and passes it to NewScheduler every tick.
func (s *Scheduler) SwitchPolicy(kind PolicyKind) { s.Policy = kind }

// Assignment pairs a chosen job with the worker it is assigned to.
type Assignment struct {
	Job    *models.Job
	Worker *models.Worker
}

// ReadyQueue builds the set of Queued or Retrying jobs whose next op's kind
// matches this workyard's class (or is a GPU op when the workyard
// hosts GPU workers), in canonical (ascending job id) order.
func ReadyQueue(jobs []*models.Job, pipelines map[string]*models.Pipeline, yardClass models.WorkerClass) []*models.Job {
	var out []*models.Job
	for _, j := range jobs {
		if j.State.Phase != models.JobQueued && j.State.Phase != models.JobRetrying {
			continue
		}
		p, ok := pipelines[j.PipelineID]
		if !ok || j.OpCursor >= len(p.Ops) {
			continue
		}
		op := p.Ops[j.OpCursor]
		if opClass(op) != yardClass {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// opClass maps an op kind to the worker class that can execute it.
// GPU-kinded ops route to GPU yards; everything else stays on its
// declared class via the "class:" prefix convention, defaulting to CPU.
func opClass(op models.OpKind) models.WorkerClass {
	if op.IsGPU() {
		return models.ClassGPU
	}
	s := string(op)
	if len(s) > 3 && s[:3] == "io:" {
		return models.ClassIO
	}
	return models.ClassCPU
}

// Select runs the workyard's ready queue through the active policy and
// greedily assigns jobs to idle workers in ascending worker-id order
// until either runs out. At-most-one active job per worker is
// preserved by the caller never re-offering an already-assigned
// worker.
func (s *Scheduler) Select(ready []*models.Job, idleWorkers []*models.Worker, pipelines map[string]*models.Pipeline) []Assignment {
	if len(ready) == 0 || len(idleWorkers) == 0 {
		return nil
	}

	sortedWorkers := append([]*models.Worker(nil), idleWorkers...)
	sort.Slice(sortedWorkers, func(i, j int) bool { return sortedWorkers[i].ID < sortedWorkers[j].ID })

	candidates := make([]Candidate, 0, len(ready))
	for _, j := range ready {
		p := pipelines[j.PipelineID]
		op := p.Ops[j.OpCursor]
		candidates = append(candidates, Candidate{
			Job:        j,
			NextOp:     op,
			BestWorker: bestWorkerFor(op, sortedWorkers),
		})
	}

	ordered := NewPolicy(s.Policy).Order(candidates, s.Cost)

	taken := map[models.WorkerID]bool{}
	var assignments []Assignment
	for _, c := range ordered {
		w := pickWorker(c.NextOp, sortedWorkers, taken)
		if w == nil {
			continue
		}
		taken[w.ID] = true
		assignments = append(assignments, Assignment{Job: c.Job, Worker: w})
	}
	return assignments
}

func bestWorkerFor(op models.OpKind, workers []*models.Worker) *models.Worker {
	var best *models.Worker
	var bestScore float64
	for _, w := range workers {
		score := w.Skill(op) * (1 - w.Corruption)
		if best == nil || score > bestScore {
			best = w
			bestScore = score
		}
	}
	return best
}

func pickWorker(op models.OpKind, workers []*models.Worker, taken map[models.WorkerID]bool) *models.Worker {
	var best *models.Worker
	var bestScore float64
	for _, w := range workers {
		if taken[w.ID] {
			continue
		}
		score := w.Skill(op) * (1 - w.Corruption)
		if best == nil || score > bestScore {
			best = w
			bestScore = score
		}
	}
	return best
}
