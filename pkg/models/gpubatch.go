package models

// BatchPhase is the tagged-variant discriminator of GpuBatch.State.
type BatchPhase string

const (
	BatchOpen         BatchPhase = "open"
	BatchLaunched     BatchPhase = "launched"
	BatchTransferring BatchPhase = "transferring"
	BatchCompleted    BatchPhase = "completed"
)

// BatchMember is one (job, op_cursor) slot contributed to a batch, in
// insertion order -- which is canonical because workers are iterated by
// ascending id.
type BatchMember struct {
	JobID   JobID
	OpIndex int
}

// BatchState is the tagged variant for GpuBatch.State: Open, Launched
// (eta_tick), Transferring or Completed.
type BatchState struct {
	Phase   BatchPhase
	ETATick int64 // meaningful iff Phase == BatchLaunched
}

// GpuBatch groups GPU op instances that execute together.
type GpuBatch struct {
	ID            string // "<op kind>-<tick>-<job id>"
	OpKind        OpKind
	Members       []BatchMember
	VRAMBytes     int64
	OpenedAtTick  int64
	DeadlineTick  int64
	State         BatchState
}

// NewGpuBatch opens a new batch for an op kind at the given tick.
func NewGpuBatch(id string, kind OpKind, openedAt int64) *GpuBatch {
	return &GpuBatch{
		ID:           id,
		OpKind:       kind,
		OpenedAtTick: openedAt,
		State:        BatchState{Phase: BatchOpen},
	}
}

// Add appends a member in insertion order.
func (b *GpuBatch) Add(job JobID, opIdx int, payloadBytes int64) {
	b.Members = append(b.Members, BatchMember{JobID: job, OpIndex: opIdx})
	b.VRAMBytes += payloadBytes
}

// ReadyToLaunch reports whether the batch should launch this tick:
// full, or timed out waiting for more members.
func (b *GpuBatch) ReadyToLaunch(currentTick int64, batchMax int, timeoutTicks int64) bool {
	if b.State.Phase != BatchOpen {
		return false
	}
	if len(b.Members) >= batchMax {
		return true
	}
	return currentTick-b.OpenedAtTick >= timeoutTicks
}

// IsComplete reports whether the batch has finished and released its
// VRAM.
func (b *GpuBatch) IsComplete() bool { return b.State.Phase == BatchCompleted }
