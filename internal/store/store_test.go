package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateAndGetSession(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	require.NoError(t, repo.CreateSession(&SessionRecord{ID: "s1", ScenarioID: "demo", SessionSeed: 42}))

	got, err := repo.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.SessionSeed)
}

func TestSaveSnapshotRejectsFutureSchemaVersion(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	err := repo.SaveSnapshot(&SnapshotRecord{SessionID: "s1", SchemaVersion: SchemaVersion + 1})
	assert.Error(t, err)
}

func TestLatestSnapshotReturnsMostRecentTick(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	require.NoError(t, repo.SaveSnapshot(&SnapshotRecord{SessionID: "s1", SchemaVersion: 1, CurrentTick: 10}))
	require.NoError(t, repo.SaveSnapshot(&SnapshotRecord{SessionID: "s1", SchemaVersion: 1, CurrentTick: 50}))

	latest, err := repo.LatestSnapshot("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), latest.CurrentTick)
}

func TestAppendTickWritesIntentsTransactionally(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	entry := &TickLogRecord{SessionID: "s1", Tick: 1, RNGAdvance: "fault:3"}
	intents := []*IntentRecord{
		{Sequence: 1, Kind: "submit_job"},
		{Sequence: 2, Kind: "set_time_scale"},
	}

	require.NoError(t, repo.AppendTick(entry, intents))

	stored, err := repo.IntentsForTick(entry.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "submit_job", stored[0].Kind)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := &Snapshot{
		SchemaVersion: SchemaVersion,
		SessionSeed:   7,
		CurrentTick:   100,
		Scenario:      "demo",
		RNGState:      map[string]uint64{"fault": 12},
	}

	encoded, err := Encode(s)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, s.SessionSeed, decoded.SessionSeed)
	assert.Equal(t, s.CurrentTick, decoded.CurrentTick)
	assert.Equal(t, uint64(12), decoded.RNGState["fault"])
}

func TestDecodeRejectsFutureSchema(t *testing.T) {
	_, err := Decode("schema_version: 999\n")
	require.Error(t, err)
	var unknown UnknownSchema
	assert.ErrorAs(t, err, &unknown)
}
