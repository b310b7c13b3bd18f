package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScenario = `
id: s1
difficulty_mult: 1.0
tick_ms: 100
workyards:
  - id: 1
    class: cpu
    capacity: 4
    heat_cap: 100
    power_cap: 100
    workers:
      - id: 1
        skills: {transform: 1.2}
pipelines:
  - id: ingest
    ops: [transform]
    qos: balanced
    deadline_ms: 5000
    payload_sz: 1024
    pending_cap: 10
victory:
  - {metric: throughput, op: ">=", value: 100}
loss:
  - {metric: corruption_field, op: ">=", value: 0.9}
tunables:
  base_bandwidth_cap: 1000000
  base_fault_rate: 0.01
  kpi_capacities: [60, 300]
`

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644))
}

func TestLoadValidScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "s1", sampleScenario)

	def, err := NewLoader(dir).Load("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", def.ID)
	assert.Len(t, def.Workyards, 1)
	assert.Equal(t, "ingest", def.Pipelines[0].ID)
}

func TestLoadRejectsMissingWorkyards(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad", "id: bad\ntick_ms: 100\npipelines:\n  - {id: p, ops: [x]}\n")

	_, err := NewLoader(dir).Load("bad")
	assert.Error(t, err)
}

func TestLoadRejectsDuplicatePipelineID(t *testing.T) {
	dir := t.TempDir()
	content := `
id: dup
tick_ms: 100
workyards: [{id: 1, class: cpu, capacity: 1, heat_cap: 10, power_cap: 10}]
pipelines:
  - {id: p, ops: [x]}
  - {id: p, ops: [y]}
`
	writeScenario(t, dir, "dup", content)

	_, err := NewLoader(dir).Load("dup")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(t.TempDir()).Load("nope")
	assert.Error(t, err)
}
