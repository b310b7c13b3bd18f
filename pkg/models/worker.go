package models

import "fmt"

// WorkerPhase is the tagged-variant discriminator for Worker.State.
type WorkerPhase string

const (
	WorkerIdle    WorkerPhase = "idle"
	WorkerRunning WorkerPhase = "running"
	WorkerFaulted WorkerPhase = "faulted"
)

// WorkerState is the polymorphic worker state: Idle, Running(job,op) or
// Faulted(kind, retry_count). Only the fields relevant to Phase are
// meaningful; the rest are zero.
type WorkerState struct {
	Phase      WorkerPhase
	JobID      JobID
	OpIndex    int
	FaultKind  FaultKind
	RetryCount int
}

// Idle reports whether the worker is not currently assigned.
func (s WorkerState) Idle() bool { return s.Phase == WorkerIdle }

// Worker is a compute unit hosted by a Workyard.
type Worker struct {
	ID         WorkerID
	Class      WorkerClass
	YardID     WorkyardID
	Skills     map[OpKind]float64 // efficiency in [0,2], default 1
	State      WorkerState
	Discipline float64 // [0,1]
	Focus      float64 // [0,1]
	Corruption float64 // [0,1]
	StickyFaults map[FaultKind]bool
}

// NewWorker creates an idle worker with the given skills.
func NewWorker(id WorkerID, class WorkerClass, yard WorkyardID, skills map[OpKind]float64) *Worker {
	if skills == nil {
		skills = map[OpKind]float64{}
	}
	return &Worker{
		ID:           id,
		Class:        class,
		YardID:       yard,
		Skills:       skills,
		State:        WorkerState{Phase: WorkerIdle},
		Discipline:   1,
		Focus:        1,
		Corruption:   0,
		StickyFaults: map[FaultKind]bool{},
	}
}

// Skill returns the worker's efficiency for an op kind, defaulting to
// 1.0 (neutral) when the op kind is not explicitly tuned.
func (w *Worker) Skill(kind OpKind) float64 {
	if s, ok := w.Skills[kind]; ok {
		return s
	}
	return 1.0
}

// Validate checks Worker invariants (corruption/discipline/focus bounds).
func (w *Worker) Validate() error {
	var errs ValidationErrors
	errs.AddIf(!w.Class.IsValid(), "Class", w.Class, "unknown worker class")
	errs.AddIf(w.Corruption < 0 || w.Corruption > 1, "Corruption", w.Corruption, "must be in [0,1]")
	errs.AddIf(w.Discipline < 0 || w.Discipline > 1, "Discipline", w.Discipline, "must be in [0,1]")
	errs.AddIf(w.Focus < 0 || w.Focus > 1, "Focus", w.Focus, "must be in [0,1]")
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Reimage clears corruption and sticky faults, per the `reimage_worker`
// intent. The worker's current job assignment is untouched -- reimage
// only resets the accumulated soft-failure state.
func (w *Worker) Reimage() {
	w.Corruption = 0
	w.StickyFaults = map[FaultKind]bool{}
	if w.State.Phase == WorkerFaulted {
		w.State = WorkerState{Phase: WorkerIdle}
	}
}

func (w *Worker) String() string {
	return fmt.Sprintf("Worker(%s, class=%s, yard=%s)", w.ID, w.Class, w.YardID)
}
