// Package gpubatch implements the GPU farm sub-model: micro-batching of
// GPU op instances, VRAM admission control, PCIe transfer time and
// kernel duration.
package gpubatch

import (
	"github.com/blackswan-colony/simcore/pkg/models"
)

// KernelProfile names the per-op-kind launch cost inputs.
type KernelProfile struct {
	BaseKernelTicks      int64
	MixedPrecisionSpeedup float64 // 1 means disabled
	WarmupTicks          int64
}

// Farm tracks open/launched/transferring batches and enforces the VRAM
// conservation invariant across them.
type Farm struct {
	VRAMBytes    int64
	BatchMax     int
	BatchTimeout int64 // ticks
	open         map[models.OpKind]*models.GpuBatch
	warm         map[models.OpKind]bool
}

// NewFarm creates a GPU farm with the given capacity and batching
// tunables.
func NewFarm(vramBytes int64, batchMax int, batchTimeoutTicks int64) *Farm {
	return &Farm{
		VRAMBytes:    vramBytes,
		BatchMax:     batchMax,
		BatchTimeout: batchTimeoutTicks,
		open:         map[models.OpKind]*models.GpuBatch{},
		warm:         map[models.OpKind]bool{},
	}
}

// UsedVRAM sums vram_bytes across every batch not yet Completed.
func UsedVRAM(batches []*models.GpuBatch) int64 {
	var total int64
	for _, b := range batches {
		if !b.IsComplete() {
			total += b.VRAMBytes
		}
	}
	return total
}

// FreeVRAM returns the farm's remaining VRAM given the batches
// currently tracked.
func (f *Farm) FreeVRAM(batches []*models.GpuBatch) int64 {
	free := f.VRAMBytes - UsedVRAM(batches)
	if free < 0 {
		return 0
	}
	return free
}

// OpenBatchFor returns the currently Open batch for an op kind,
// opening a fresh one (via newID) if none exists.
func (f *Farm) OpenBatchFor(kind models.OpKind, currentTick int64, newID func() string) *models.GpuBatch {
	if b, ok := f.open[kind]; ok {
		return b
	}
	b := models.NewGpuBatch(newID(), kind, currentTick)
	f.open[kind] = b
	return b
}

// Enqueue adds a job's GPU op instance to the open batch for its op
// kind. The worker that enqueued it should move to Idle; GPU workers
// dispatch and return immediately rather than blocking on the batch.
func (f *Farm) Enqueue(b *models.GpuBatch, job models.JobID, opIdx int, payloadBytes int64) {
	b.Add(job, opIdx, payloadBytes)
}

// TryLaunch launches a batch that is ReadyToLaunch and has sufficient
// free VRAM; a ready-but-VRAM-starved batch stays Open (held) and the
// caller should record VRAM pressure for KPI. Returns the tick at
// which the batch completes, or ok=false if the batch did not launch.
func (f *Farm) TryLaunch(b *models.GpuBatch, currentTick int64, batches []*models.GpuBatch, profile KernelProfile, pcieGbps float64, tickMs int64) (etaTick int64, ok bool) {
	if !b.ReadyToLaunch(currentTick, f.BatchMax, f.BatchTimeout) {
		return 0, false
	}
	free := f.VRAMBytes - UsedVRAM(batches)
	for _, other := range batches {
		if other == b {
			free += b.VRAMBytes // b's own bytes are already in UsedVRAM
			break
		}
	}
	if free < b.VRAMBytes {
		return 0, false // held: stays Open, contributes VRAM-pressure backpressure
	}

	transferTicks := pcieTransferTicks(b.VRAMBytes, pcieGbps, tickMs)
	kernelTicks := kernelDurationTicks(profile, !f.warm[b.OpKind])
	f.warm[b.OpKind] = true

	eta := currentTick + transferTicks + kernelTicks
	b.State = models.BatchState{Phase: models.BatchLaunched, ETATick: eta}
	delete(f.open, b.OpKind)
	return eta, true
}

// pcieTransferTicks converts a byte count and link rate (Gbps) into a
// tick count, rounded up.
func pcieTransferTicks(bytes int64, pcieGbps float64, tickMs int64) int64 {
	if pcieGbps <= 0 || tickMs <= 0 {
		return 0
	}
	bytesPerSecond := pcieGbps * 1e9 / 8
	seconds := float64(bytes) / bytesPerSecond
	ticks := seconds * 1000 / float64(tickMs)
	return ceilInt64(ticks)
}

// kernelDurationTicks applies mixed-precision speedup and a one-time
// warmup penalty when the op kind has not run since the farm started
// (TryLaunch marks an op kind warm after its first launch; nothing in
// the package marks it cold again).
func kernelDurationTicks(profile KernelProfile, cold bool) int64 {
	speedup := profile.MixedPrecisionSpeedup
	if speedup <= 0 {
		speedup = 1
	}
	base := float64(profile.BaseKernelTicks) / speedup
	ticks := ceilInt64(base)
	if cold {
		ticks += profile.WarmupTicks
	}
	return ticks
}

func ceilInt64(v float64) int64 {
	i := int64(v)
	if float64(i) < v {
		i++
	}
	return i
}

// Complete transitions a launched batch to Completed once currentTick
// has reached its ETA. Returns the member list so the caller can
// advance every member's op_cursor and update Job/Worker entities
// (gpubatch does not own the entity store).
func Complete(b *models.GpuBatch, currentTick int64) (members []models.BatchMember, completed bool) {
	if b.State.Phase != models.BatchLaunched || currentTick < b.State.ETATick {
		return nil, false
	}
	b.State = models.BatchState{Phase: models.BatchCompleted}
	return b.Members, true
}
