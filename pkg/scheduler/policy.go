// Package scheduler implements per-workyard job selection under a
// pluggable policy (FCFS, SJF, EDF, HeteroAware), with per-pipeline
// backpressure on the pending job count.
package scheduler

import (
	"sort"

	"github.com/blackswan-colony/simcore/pkg/models"
)

// PolicyKind names a scheduling policy, selected by the
// switch_scheduler intent.
type PolicyKind string

const (
	PolicyFCFS        PolicyKind = "fcfs"
	PolicySJF         PolicyKind = "sjf"
	PolicyEDF         PolicyKind = "edf"
	PolicyHeteroAware PolicyKind = "hetero_aware"
)

// OpCost estimates the nominal work-unit cost of running one op kind
// against a payload size; supplied by the caller since cost curves are
// scenario data, not scheduler state.
type OpCost func(kind models.OpKind, payloadSz int64) float64

// Candidate is one ready job plus the context the policy needs to rank
// it: its pipeline's next op kind and the best available worker's
// skill at that op.
type Candidate struct {
	Job        *models.Job
	NextOp     models.OpKind
	BestWorker *models.Worker
}

// Policy orders a set of ready candidates into the sequence jobs should
// be assigned in.
type Policy interface {
	Order(candidates []Candidate, cost OpCost) []Candidate
}

// NewPolicy resolves a PolicyKind to its Policy implementation.
func NewPolicy(kind PolicyKind) Policy {
	switch kind {
	case PolicySJF:
		return sjfPolicy{}
	case PolicyEDF:
		return edfPolicy{}
	case PolicyHeteroAware:
		return heteroAwarePolicy{}
	default:
		return fcfsPolicy{}
	}
}

type fcfsPolicy struct{}

func (fcfsPolicy) Order(candidates []Candidate, _ OpCost) []Candidate {
	out := append([]Candidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Job, out[j].Job
		if a.SubmittedTick != b.SubmittedTick {
			return a.SubmittedTick < b.SubmittedTick
		}
		return a.ID < b.ID
	})
	return out
}

type sjfPolicy struct{}

func (sjfPolicy) Order(candidates []Candidate, cost OpCost) []Candidate {
	out := append([]Candidate(nil), candidates...)
	remaining := make(map[models.JobID]float64, len(out))
	for _, c := range out {
		remaining[c.Job.ID] = estimatedRemainingCost(c, cost)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := remaining[out[i].Job.ID], remaining[out[j].Job.ID]
		if ci != cj {
			return ci < cj
		}
		return out[i].Job.ID < out[j].Job.ID
	})
	return out
}

// estimatedRemainingCost sums op_cost/skill over the candidate's
// current op, assuming the best idle worker identified for it.
func estimatedRemainingCost(c Candidate, cost OpCost) float64 {
	skill := 1.0
	if c.BestWorker != nil {
		skill = c.BestWorker.Skill(c.NextOp)
	}
	if skill <= 0 {
		skill = 0.01
	}
	return cost(c.NextOp, c.Job.PayloadSz) / skill
}

type edfPolicy struct{}

func (edfPolicy) Order(candidates []Candidate, _ OpCost) []Candidate {
	out := append([]Candidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Job, out[j].Job
		if a.DeadlineTick != b.DeadlineTick {
			return a.DeadlineTick < b.DeadlineTick
		}
		return a.ID < b.ID
	})
	return out
}

type heteroAwarePolicy struct{}

// Order maximizes skill(worker, op) * (1 - worker.corruption) in
// canonical (job id) order, falling back to SJF ranking among ties.
func (heteroAwarePolicy) Order(candidates []Candidate, cost OpCost) []Candidate {
	out := append([]Candidate(nil), candidates...)
	score := make(map[models.JobID]float64, len(out))
	for _, c := range out {
		score[c.Job.ID] = heteroScore(c)
	}
	sjfOrder := sjfPolicy{}.Order(out, cost)
	sjfRank := make(map[models.JobID]int, len(sjfOrder))
	for i, c := range sjfOrder {
		sjfRank[c.Job.ID] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := score[out[i].Job.ID], score[out[j].Job.ID]
		if si != sj {
			return si > sj
		}
		return sjfRank[out[i].Job.ID] < sjfRank[out[j].Job.ID]
	})
	return out
}

func heteroScore(c Candidate) float64 {
	if c.BestWorker == nil {
		return 0
	}
	return c.BestWorker.Skill(c.NextOp) * (1 - c.BestWorker.Corruption)
}
