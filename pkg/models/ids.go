package models

import "fmt"

// WorkerID, WorkyardID and JobID are compact monotonic handles so that
// canonical-order iteration (ascending id) is a plain numeric sort
// rather than a string comparison. GpuBatch, Debt and BlackSwanEvent
// use string ids instead (batch ids are built from op kind, tick and
// job id, debt ids from event id and signal, event ids come from the
// scenario), since they are only looked up by key or sorted as strings.
type WorkerID uint64

// WorkyardID identifies a Workyard.
type WorkyardID uint64

// JobID identifies a Job.
type JobID uint64

func (id WorkerID) String() string  { return fmt.Sprintf("worker-%d", uint64(id)) }
func (id WorkyardID) String() string { return fmt.Sprintf("workyard-%d", uint64(id)) }
func (id JobID) String() string     { return fmt.Sprintf("job-%d", uint64(id)) }

// IDAllocator mints monotonic, never-reused ids of one kind without
// needing a central entity store to track "ids ever seen".
type IDAllocator struct {
	next uint64
}

// NewIDAllocator creates an allocator starting after seed (0 for a
// fresh session, or the highest id loaded from a snapshot, so replay
// never reissues an id already present in the save).
func NewIDAllocator(seed uint64) *IDAllocator {
	return &IDAllocator{next: seed}
}

// Next returns the next unused id and advances the allocator.
func (a *IDAllocator) Next() uint64 {
	a.next++
	return a.next
}

// Peek returns the most recently issued id (or the seed, before any
// Next call), without consuming one; the next call to Next returns
// Peek()+1. Passing it to NewIDAllocator restores the allocator.
func (a *IDAllocator) Peek() uint64 { return a.next }
