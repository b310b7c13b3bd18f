// Package replay bridges a running tick.Session to the versioned
// textual snapshot internal/store persists, and turns a session's
// applied intents into the append-only replay log -- shared by the
// httpapi control plane's save/load endpoints and the headless
// colonysim driver so both save and load state identically.
package replay

import (
	"encoding/json"
	"fmt"

	"github.com/blackswan-colony/simcore/internal/store"
	"github.com/blackswan-colony/simcore/internal/tick"
)

// ToSnapshot serializes a running session into the versioned textual
// tree internal/store persists. KPI windows are never included here --
// they rebuild from the replay log, matching store.Snapshot's own doc
// comment.
func ToSnapshot(sess *tick.Session, scenarioID string) *store.Snapshot {
	return &store.Snapshot{
		SchemaVersion: store.SchemaVersion,
		SessionSeed:   sess.RNG.RootSeed(),
		CurrentTick:   sess.CurrentTick,
		Scenario:      scenarioID,
		Workers:       sess.Store.WorkersByID(),
		Workyards:     sess.Store.WorkyardsByID(),
		Pipelines:     sess.Store.PipelinesByID(),
		Jobs:          sess.Store.JobsByID(),
		GpuBatches:    sess.Store.GpuBatchesByID(),
		Debts:         sess.Store.DebtsByID(),
		Events:        sess.Store.EventsByID(),
		Research:      sess.Store.Research,
		RNGState:      rngState(sess),
	}
}

func rngState(sess *tick.Session) map[string]uint64 {
	out := map[string]uint64{}
	for _, name := range sess.RNG.StreamNames() {
		out[name] = sess.RNG.Stream(name).Counter()
	}
	return out
}

// FromSnapshot rebuilds a session's entity store from a decoded
// snapshot, restoring RNG stream counters so replay resumes the exact
// draw sequence. cfg is the scenario's tick.Config, loaded separately
// since tunables are authored data, not part of the save.
func FromSnapshot(snap *store.Snapshot, cfg tick.Config) *tick.Session {
	sess := tick.NewSession(snap.SessionSeed, 0, cfg)
	sess.CurrentTick = snap.CurrentTick

	for _, w := range snap.Workers {
		sess.Store.Workers[w.ID] = w
	}
	for _, y := range snap.Workyards {
		sess.Store.Workyards[y.ID] = y
	}
	for _, p := range snap.Pipelines {
		sess.Store.Pipelines[p.ID] = p
	}
	for _, j := range snap.Jobs {
		sess.Store.Jobs[j.ID] = j
	}
	for _, b := range snap.GpuBatches {
		sess.Store.GpuBatches[b.ID] = b
	}
	for _, d := range snap.Debts {
		sess.Store.Debts[d.ID] = d
	}
	for _, e := range snap.Events {
		sess.Store.Events[e.ID] = e
	}
	if snap.Research != nil {
		sess.Store.Research = snap.Research
	}
	for name, counter := range snap.RNGState {
		sess.RNG.RestoreStream(name, counter)
	}
	return sess
}

// AppendTickLog encodes one tick's applied intents into the replay
// log, JSON-marshaling each Intent in full so a later replay can
// restore every field, not just its Kind.
func AppendTickLog(repo *store.Repository, sessionID string, sess *tick.Session, results []tick.IntentResult) error {
	entry := &store.TickLogRecord{SessionID: sessionID, Tick: sess.CurrentTick}
	records := make([]*store.IntentRecord, 0, len(results))
	for _, r := range results {
		payload, err := json.Marshal(r.Intent)
		if err != nil {
			return fmt.Errorf("replay: encoding intent payload: %w", err)
		}
		records = append(records, &store.IntentRecord{
			Sequence: r.Intent.Sequence,
			Kind:     string(r.Intent.Kind),
			Payload:  string(payload),
			Rejected: r.Rejected,
			Reason:   r.Reason,
		})
	}
	return repo.AppendTick(entry, records)
}

// IntentFromRecord restores a logged intent's full payload so replay
// re-applies the identical mutation rather than just its kind.
func IntentFromRecord(rec store.IntentRecord) tick.Intent {
	var in tick.Intent
	if err := json.Unmarshal([]byte(rec.Payload), &in); err != nil {
		return tick.Intent{Kind: tick.IntentKind(rec.Kind)}
	}
	return in
}

// Autosave forces a snapshot write independent of any caller-side
// tick-interval bookkeeping -- AutosavePolicy.ShouldSave already
// decided it is time; this just performs the write.
func Autosave(repo *store.Repository, sess *tick.Session, sessionID, scenarioID string) error {
	snap := ToSnapshot(sess, scenarioID)
	encoded, err := store.Encode(snap)
	if err != nil {
		return fmt.Errorf("replay: encoding autosave snapshot: %w", err)
	}
	return repo.SaveSnapshot(&store.SnapshotRecord{
		SessionID:     sessionID,
		SchemaVersion: store.SchemaVersion,
		CurrentTick:   sess.CurrentTick,
		EncodedState:  encoded,
	})
}
