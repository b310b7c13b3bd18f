package tick

import (
	"sort"
	"sync"

	"github.com/blackswan-colony/simcore/pkg/gpubatch"
	"github.com/blackswan-colony/simcore/pkg/models"
	"github.com/blackswan-colony/simcore/pkg/scheduler"
)

// IntentKind names the mutation an intent applies.
type IntentKind string

const (
	IntentSubmitJob        IntentKind = "submit_job"
	IntentSetTimeScale     IntentKind = "set_time_scale"
	IntentSwitchScheduler IntentKind = "switch_scheduler"
	IntentMaintenanceStart IntentKind = "maintenance_start"
	IntentReimageWorker    IntentKind = "reimage_worker"
	IntentModMutation      IntentKind = "mod_mutation"
	IntentForceFireEvent   IntentKind = "force_fire_event"
	IntentSetCorruptionConfig IntentKind = "set_corruption_config"
	IntentSetGPUConfig     IntentKind = "set_gpu_config"
	IntentUnlockResearch   IntentKind = "unlock_research"
	IntentStartRitual      IntentKind = "start_ritual"
	IntentSetIOTraffic     IntentKind = "set_io_traffic"
)

// Intent is one queued mutation request. Only the fields relevant to
// Kind are meaningful.
type Intent struct {
	Sequence   uint64
	Kind       IntentKind
	PipelineID string
	PayloadSz  int64
	DeadlineMs int64

	TimeScale TimeScale

	SchedulerYard models.WorkyardID
	Policy        scheduler.PolicyKind

	MaintenanceYard   models.WorkyardID
	MaintenanceTicks  int
	MaintenanceEffect string

	ReimageWorker models.WorkerID

	ModID      string
	ModPayload string

	EventID string

	// ConfigPatch carries numeric overrides for set_corruption_config
	// and set_gpu_config; only the keys present are applied, so a
	// partial patch leaves the rest of the tunable set untouched.
	ConfigPatch map[string]float64
	GPUOpKind   models.OpKind
	GPUProfile  gpubatch.KernelProfile

	TechID    string
	TechTicks int64

	RitualID         string
	RitualYard       models.WorkyardID
	RitualParts      int
	RitualTotalTicks int64

	// IOYard/BWUtil feed set_io_traffic: an out-of-core traffic
	// generator's aggregated bandwidth utilization in [0,1] for one
	// workyard, folded into corruption stress pressure until replaced.
	IOYard models.WorkyardID
	BWUtil float64
}

// IntentResult records what happened when an intent was applied,
// appended to the replay log regardless of outcome -- a rejection is
// still a deterministic, replayable fact.
type IntentResult struct {
	Intent   Intent
	Rejected bool
	Reason   string
}

// IntentQueue is an MPMC buffer intents are appended to concurrently
// by I/O ingestion and the HTTP control plane, and drained once per
// tick by the tick loop. Sequence numbers are assigned at enqueue time
// so two intents from the same tick are applied in enqueue order.
type IntentQueue struct {
	mu      sync.Mutex
	next    uint64
	pending []Intent
}

// NewIntentQueue creates an empty queue.
func NewIntentQueue() *IntentQueue {
	return &IntentQueue{}
}

// Enqueue appends an intent, assigning it the next sequence number.
func (q *IntentQueue) Enqueue(in Intent) Intent {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	in.Sequence = q.next
	q.pending = append(q.pending, in)
	return in
}

// Drain removes and returns every intent with sequence <= cutoff, in
// ascending sequence order. A cutoff of 0 drains everything currently
// queued.
func (q *IntentQueue) Drain(cutoff uint64) []Intent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if cutoff == 0 {
		cutoff = q.next
	}

	sort.Slice(q.pending, func(i, j int) bool { return q.pending[i].Sequence < q.pending[j].Sequence })

	var drained, kept []Intent
	for _, in := range q.pending {
		if in.Sequence <= cutoff {
			drained = append(drained, in)
		} else {
			kept = append(kept, in)
		}
	}
	q.pending = kept
	return drained
}
