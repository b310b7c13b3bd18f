package store

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/blackswan-colony/simcore/pkg/models"
)

// Snapshot is the versioned, self-describing textual tree a session
// serializes to and restores from. KPI windows are optional: they can
// always be rebuilt by replaying the tick log from this snapshot
// forward, so the KPIWindows field is left out of the encoding when it
// is empty (replay.ToSnapshot never fills it).
type Snapshot struct {
	SchemaVersion int                `yaml:"schema_version"`
	SessionSeed   uint64             `yaml:"session_seed"`
	CurrentTick   int64              `yaml:"current_tick"`
	Scenario      string             `yaml:"scenario"`
	Workers       []*models.Worker   `yaml:"workers"`
	Workyards     []*models.Workyard `yaml:"workyards"`
	Pipelines     []*models.Pipeline `yaml:"pipelines"`
	Jobs          []*models.Job      `yaml:"jobs"`
	GpuBatches    []*models.GpuBatch `yaml:"gpu_batches"`
	Debts         []*models.Debt     `yaml:"debts"`
	Events        []*models.BlackSwanEvent `yaml:"events"`
	Research      *models.Research   `yaml:"research"`
	RNGState      map[string]uint64  `yaml:"rng_state"`
	KPIWindows    map[string][]kpiSample `yaml:"kpi_windows,omitempty"`
}

type kpiSample struct {
	Tick  int64   `yaml:"tick"`
	Value float64 `yaml:"value"`
}

// Encode serializes a snapshot into the self-describing textual tree
// stored in SnapshotRecord.EncodedState.
func Encode(s *Snapshot) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("store: failed to encode snapshot: %w", err)
	}
	return string(out), nil
}

// Decode parses an encoded snapshot, migrating it to the current
// schema version first if it is older.
func Decode(encoded string) (*Snapshot, error) {
	var probe struct {
		SchemaVersion int `yaml:"schema_version"`
	}
	if err := yaml.Unmarshal([]byte(encoded), &probe); err != nil {
		return nil, fmt.Errorf("store: failed to probe schema version: %w", err)
	}

	current, err := Migrate(encoded, probe.SchemaVersion)
	if err != nil {
		return nil, err
	}

	var s Snapshot
	if err := yaml.Unmarshal([]byte(current), &s); err != nil {
		return nil, fmt.Errorf("store: failed to decode snapshot: %w", err)
	}
	return &s, nil
}
