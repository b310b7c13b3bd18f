package store

import "time"

// SchemaVersion is the current snapshot schema's version. The
// migration table in migrate.go promotes older versions forward;
// loading a version above this fails with UnknownSchema.
const SchemaVersion = 1

// SessionRecord is one play session's metadata.
type SessionRecord struct {
	ID          string `gorm:"primaryKey"`
	ScenarioID  string
	SessionSeed uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SnapshotRecord is one versioned, self-describing snapshot of world
// state. EncodedState holds the textual-tree encoding (see snapshot.go)
// of entities, debts, events, research and rng_state; kpi_windows are
// optional and can be rebuilt from the replay log, so they appear in
// the encoding only when the Snapshot's KPIWindows field is non-empty.
type SnapshotRecord struct {
	ID            uint   `gorm:"primaryKey"`
	SessionID     string `gorm:"index"`
	SchemaVersion int
	CurrentTick   int64
	EncodedState  string `gorm:"type:text"`
	CreatedAt     time.Time
}

// TickLogRecord is one append-only replay log entry for a tick; the
// intents applied during it are stored as IntentRecord rows. RNGAdvance
// is a column for a summary of RNG stream advances, but
// replay.AppendTickLog leaves it empty, so replay from a snapshot
// depends on the snapshot's stream counters and the intent log only.
type TickLogRecord struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"index"`
	Tick        int64  `gorm:"index"`
	RNGAdvance  string `gorm:"type:text"` // encoded per-stream counter deltas
	CreatedAt   time.Time
}

// IntentRecord is one intent applied (or rejected) during a tick,
// ordered by sequence number within the tick.
type IntentRecord struct {
	ID       uint   `gorm:"primaryKey"`
	TickLogID uint  `gorm:"index"`
	Sequence uint64
	Kind     string
	Payload  string `gorm:"type:text"`
	Rejected bool
	Reason   string
}
