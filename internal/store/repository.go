package store

import (
	"fmt"

	"gorm.io/gorm"
)

// Repository provides data access methods over the replay/snapshot
// database.
type Repository struct {
	db *DB
}

// NewRepository creates a repository bound to an open database.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateSession records a new play session.
func (r *Repository) CreateSession(s *SessionRecord) error {
	return r.db.Create(s).Error
}

// GetSession retrieves a session by id.
func (r *Repository) GetSession(id string) (*SessionRecord, error) {
	var s SessionRecord
	if err := r.db.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSnapshot persists a new snapshot record. Callers wishing to load
// the latest snapshot of a session should use LatestSnapshot.
func (r *Repository) SaveSnapshot(snap *SnapshotRecord) error {
	if snap.SchemaVersion > SchemaVersion {
		return fmt.Errorf("store: refusing to write snapshot at future schema version %d (current %d)", snap.SchemaVersion, SchemaVersion)
	}
	return r.db.Create(snap).Error
}

// LatestSnapshot returns the most recent snapshot for a session, or
// gorm.ErrRecordNotFound if none exists.
func (r *Repository) LatestSnapshot(sessionID string) (*SnapshotRecord, error) {
	var snap SnapshotRecord
	err := r.db.Where("session_id = ?", sessionID).Order("current_tick DESC").First(&snap).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// AppendTick writes one tick's replay log entry and its intent
// records in a single transaction so the log is never left
// half-written.
func (r *Repository) AppendTick(entry *TickLogRecord, intents []*IntentRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		for _, in := range intents {
			in.TickLogID = entry.ID
			if err := tx.Create(in).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// TickLogRange returns replay log entries for a session between
// fromTick and toTick inclusive, in ascending tick order -- the slice
// a replay load feeds back through the tick pipeline.
func (r *Repository) TickLogRange(sessionID string, fromTick, toTick int64) ([]TickLogRecord, error) {
	var entries []TickLogRecord
	err := r.db.Where("session_id = ? AND tick >= ? AND tick <= ?", sessionID, fromTick, toTick).
		Order("tick ASC").Find(&entries).Error
	return entries, err
}

// IntentsForTick returns the intent records belonging to one tick log
// entry, in sequence order.
func (r *Repository) IntentsForTick(tickLogID uint) ([]IntentRecord, error) {
	var intents []IntentRecord
	err := r.db.Where("tick_log_id = ?", tickLogID).Order("sequence ASC").Find(&intents).Error
	return intents, err
}
