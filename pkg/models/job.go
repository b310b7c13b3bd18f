package models

import "fmt"

// JobPhase is the coarse discriminator of Job.Status; Finished and
// Retrying carry an associated reason/op index respectively.
type JobPhase string

const (
	JobQueued   JobPhase = "queued"
	JobReady    JobPhase = "ready"
	JobRunning  JobPhase = "running"
	JobRetrying JobPhase = "retrying"
	JobFinished JobPhase = "finished"
)

// FinishReason discriminates a Finished job.
type FinishReason string

const (
	FinishOK           FinishReason = "ok"
	FinishDeadlineMiss FinishReason = "deadline_miss"
	FinishDropped      FinishReason = "dropped"
)

// FaultKind enumerates the fault taxonomy a job can suffer during
// execution.
type FaultKind string

const (
	FaultTransient     FaultKind = "transient"
	FaultDataSkew      FaultKind = "data_skew"
	FaultStickyConfig  FaultKind = "sticky_config"
	FaultQueueDrop     FaultKind = "queue_drop"
)

// JobStatus is the tagged variant for Job.State.
type JobStatus struct {
	Phase        JobPhase
	FinishReason FinishReason // meaningful iff Phase == JobFinished
	RetryOpIndex int          // meaningful iff Phase == JobRetrying
	BackoffTicks int          // meaningful iff Phase == JobRetrying
	MissImminent bool         // EDF: deadline already passed at admission
}

var jobTransitions = map[JobPhase][]JobPhase{
	JobQueued:   {JobReady, JobFinished},
	JobReady:    {JobRunning, JobFinished},
	JobRunning:  {JobRetrying, JobFinished},
	JobRetrying: {JobRunning, JobFinished},
	JobFinished: {},
}

// CanTransitionTo reports whether moving from the current phase to
// target is a legal transition.
func (s JobStatus) CanTransitionTo(target JobPhase) bool {
	for _, allowed := range jobTransitions[s.Phase] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Job is a unit of work walking a Pipeline's ops in order.
type Job struct {
	ID            JobID
	PipelineID    string
	SubmittedTick int64
	DeadlineTick  int64
	PayloadSz     int64
	OpCursor      int
	AssignedTo    WorkerID
	HasAssignment bool
	State         JobStatus
	Corrupted     bool // tagged corrupt by a DataSkew fault
}

// NewJob creates a freshly Queued job.
func NewJob(id JobID, pipelineID string, submittedTick, deadlineTick, payloadSz int64) *Job {
	return &Job{
		ID:            id,
		PipelineID:    pipelineID,
		SubmittedTick: submittedTick,
		DeadlineTick:  deadlineTick,
		PayloadSz:     payloadSz,
		State:         JobStatus{Phase: JobQueued},
	}
}

// Validate checks Job invariants, including deadline monotonicity
// (deadline_tick must not precede submitted_tick).
func (j *Job) Validate() error {
	var errs ValidationErrors
	errs.AddIf(j.PipelineID == "", "PipelineID", j.PipelineID, "must reference a pipeline")
	errs.AddIf(j.DeadlineTick < j.SubmittedTick, "DeadlineTick", j.DeadlineTick, "deadline must not precede submission")
	errs.AddIf(j.PayloadSz < 0, "PayloadSz", j.PayloadSz, "must be non-negative")
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// TransitionTo moves the job to a new phase, enforcing the legality
// table, and returns an error describing the illegal transition
// otherwise.
func (j *Job) TransitionTo(target JobPhase) error {
	if !j.State.CanTransitionTo(target) {
		return fmt.Errorf("job %s: cannot transition from %s to %s", j.ID, j.State.Phase, target)
	}
	j.State.Phase = target
	return nil
}

// Finish marks the job Finished with the given reason and releases its
// worker assignment.
func (j *Job) Finish(reason FinishReason) error {
	if err := j.TransitionTo(JobFinished); err != nil {
		return err
	}
	j.State.FinishReason = reason
	j.HasAssignment = false
	return nil
}

// IsTerminal reports whether the job has reached a Finished state.
func (j *Job) IsTerminal() bool { return j.State.Phase == JobFinished }
