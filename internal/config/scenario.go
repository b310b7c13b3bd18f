// Package config loads scenario definitions -- the authored catalog of
// workyards, pipelines, starting research and the Black Swan event
// library a session is seeded with -- from YAML, the way the teacher's
// ConfigLoader layers a human-authored file into typed Go structs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blackswan-colony/simcore/pkg/models"
)

// ScenarioDefinition is the authored catalog a session seeds its Store
// from: workyards, workers, pipelines, research gates and the Black
// Swan event roster, plus the victory/loss clauses and scenario-wide
// tunables.
type ScenarioDefinition struct {
	ID         string           `yaml:"id"`
	Difficulty float64          `yaml:"difficulty_mult"`
	TickMs     int64            `yaml:"tick_ms"`
	Workyards  []WorkyardSpec   `yaml:"workyards"`
	Pipelines  []PipelineSpec   `yaml:"pipelines"`
	Events     []EventSpec      `yaml:"events"`
	Research   []TechSpec       `yaml:"research"`
	Victory    []ClauseSpec     `yaml:"victory"`
	Loss       []ClauseSpec     `yaml:"loss"`
	Tunables   TunablesSpec     `yaml:"tunables"`
}

// WorkyardSpec is one authored workyard plus the workers it starts
// staffed with.
type WorkyardSpec struct {
	ID       uint64            `yaml:"id"`
	Class    string            `yaml:"class"`
	Capacity int               `yaml:"capacity"`
	HeatCap  float64           `yaml:"heat_cap"`
	PowerCap float64           `yaml:"power_cap"`
	Workers  []WorkerSpec      `yaml:"workers"`
}

// WorkerSpec is one authored worker's starting skills.
type WorkerSpec struct {
	ID     uint64             `yaml:"id"`
	Skills map[string]float64 `yaml:"skills"`
}

// PipelineSpec is one authored pipeline definition.
type PipelineSpec struct {
	ID         string   `yaml:"id"`
	Ops        []string `yaml:"ops"`
	QoS        string   `yaml:"qos"`
	DeadlineMs int64    `yaml:"deadline_ms"`
	PayloadSz  int64    `yaml:"payload_sz"`
	PendingCap int      `yaml:"pending_cap"`
}

// ClauseSpec is one authored victory/loss clause.
type ClauseSpec struct {
	Metric string  `yaml:"metric"`
	Op     string  `yaml:"op"`
	Value  float64 `yaml:"value"`
}

// TriggerSpec is one authored Black Swan trigger clause.
type TriggerSpec struct {
	Metric string  `yaml:"metric"`
	Op     string  `yaml:"op"`
	Value  float64 `yaml:"value"`
	Window int64   `yaml:"window"`
}

// EffectSpec is one authored Black Swan effect. Only the fields that
// apply to Kind are meaningful, matching models.Effect's own tagged
// layout.
type EffectSpec struct {
	Kind           string  `yaml:"kind"`
	OpKind         string  `yaml:"op_kind"`
	Selector       string  `yaml:"selector"`
	Append         bool    `yaml:"append"`
	Signal         string  `yaml:"signal"`
	Magnitude      float64 `yaml:"magnitude"`
	DurationTicks  int64   `yaml:"duration_ticks"`
	IllusionSignal string  `yaml:"illusion_signal"`
	Offset         float64 `yaml:"offset"`
	StickKind      string  `yaml:"stick_kind"`
	StickClass     string  `yaml:"stick_class"`
	StickCap       int     `yaml:"stick_cap"`
}

// CureSpecYAML is one authored cure ritual.
type CureSpecYAML struct {
	JobTemplate string `yaml:"job_template"`
	Parts       int    `yaml:"parts"`
	TotalTicks  int64  `yaml:"total_ticks"`
}

// EventSpec is one authored Black Swan event definition.
type EventSpec struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Weight   float64       `yaml:"weight"`
	Triggers []TriggerSpec `yaml:"triggers"`
	Effects  []EffectSpec  `yaml:"effects"`
	Cure     *CureSpecYAML `yaml:"cure"`
}

// TechSpec is one authored research unlock's prerequisites.
type TechSpec struct {
	ID       string   `yaml:"id"`
	Requires []string `yaml:"requires"`
	Ticks    int64    `yaml:"ticks"`
}

// TunablesSpec carries the scenario-wide numeric knobs that feed
// tick.Config.
type TunablesSpec struct {
	BaseBandwidthCap       float64 `yaml:"base_bandwidth_cap"`
	BaseFaultRate          float64 `yaml:"base_fault_rate"`
	HeatWeight             float64 `yaml:"heat_weight"`
	BWWeight               float64 `yaml:"bw_weight"`
	StarvationWeight       float64 `yaml:"starvation_weight"`
	CorruptionPenalty      float64 `yaml:"corruption_penalty"`
	MaxRetries             int     `yaml:"max_retries"`
	RetryBackoffTicks      int     `yaml:"retry_backoff_ticks"`
	PCIeGbps               float64 `yaml:"pcie_gbps"`
	CorruptionStepUp       float64 `yaml:"corruption_step_up"`
	CorruptionDecay        float64 `yaml:"corruption_decay"`
	CorruptionRecoverBoost float64 `yaml:"corruption_recover_boost"`
	GlobalCoupling         float64 `yaml:"global_coupling"`
	GlobalDecay            float64 `yaml:"global_decay"`
	SoftCap                float64 `yaml:"soft_cap"`
	KPICapacities          []int64 `yaml:"kpi_capacities"`
	PowerPerWorker         float64 `yaml:"power_per_worker"`
	VRAMBytes              int64   `yaml:"vram_bytes"`
	BatchMax               int     `yaml:"batch_max"`
	BatchTimeoutTicks      int64   `yaml:"batch_timeout_ticks"`
}

// Loader reads scenario definitions from a directory of YAML files.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at a scenario directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads and validates one scenario file by name (without the
// extension -- "s1" resolves to "<dir>/s1.yaml").
func (l *Loader) Load(name string) (*ScenarioDefinition, error) {
	path := l.dir + "/" + name + ".yaml"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading scenario %q: %w", name, err)
	}
	var def ScenarioDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("config: parsing scenario %q: %w", name, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid scenario %q: %w", name, err)
	}
	return &def, nil
}

// Validate checks structural invariants of a scenario definition
// before it is used to seed a session, mirroring the accumulate-all-
// errors style models.ValidationErrors uses across the domain types.
func (d *ScenarioDefinition) Validate() error {
	var errs models.ValidationErrors
	errs.AddIf(d.ID == "", "ID", d.ID, "scenario id cannot be empty")
	errs.AddIf(d.TickMs <= 0, "TickMs", d.TickMs, "must be positive")
	errs.AddIf(len(d.Workyards) == 0, "Workyards", len(d.Workyards), "scenario must define at least one workyard")
	errs.AddIf(len(d.Pipelines) == 0, "Pipelines", len(d.Pipelines), "scenario must define at least one pipeline")

	seenYards := map[uint64]bool{}
	for _, y := range d.Workyards {
		errs.AddIf(seenYards[y.ID], "Workyards", y.ID, "duplicate workyard id")
		seenYards[y.ID] = true
	}
	seenPipelines := map[string]bool{}
	for _, p := range d.Pipelines {
		errs.AddIf(seenPipelines[p.ID], "Pipelines", p.ID, "duplicate pipeline id")
		seenPipelines[p.ID] = true
		errs.AddIf(len(p.Ops) == 0, "Pipelines["+p.ID+"].Ops", len(p.Ops), "pipeline must have at least one op")
	}
	seenEvents := map[string]bool{}
	for _, e := range d.Events {
		errs.AddIf(seenEvents[e.ID], "Events", e.ID, "duplicate event id")
		seenEvents[e.ID] = true
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}
