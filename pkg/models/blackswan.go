package models

// EventPhase is the tagged-variant discriminator of BlackSwanEvent.State.
type EventPhase string

const (
	EventDormant  EventPhase = "dormant"
	EventEligible EventPhase = "eligible"
	EventFired    EventPhase = "fired"
	EventCured    EventPhase = "cured"
)

// TriggerOp is a comparison operator used in a trigger clause.
type TriggerOp string

const (
	OpGT TriggerOp = ">"
	OpGE TriggerOp = ">="
	OpLT TriggerOp = "<"
	OpLE TriggerOp = "<="
	OpEQ TriggerOp = "=="
)

// TriggerClause is one ANDed condition of a Black Swan trigger:
// `metric OP value [, window=W]`.
type TriggerClause struct {
	Metric     string
	Op         TriggerOp
	Value      float64
	WindowTicks int64 // 0 means "use the metric's default window"
}

// Effect is a tagged variant of the effects a fired Black Swan event
// applies, in list order.
type Effect struct {
	Kind EffectKind

	// PipelineInsert
	OpKind   OpKind
	Selector string
	Append   bool

	// DebtEffect
	Signal        DebtSignal
	Magnitude     float64
	DurationTicks int64

	// IllusionEffect
	IllusionSignal string
	Offset         float64

	// WorkerStick
	StickKind FaultKind
	StickClass WorkerClass
	StickCap   int // 0 means "no cap: all matching workers"
}

// EffectKind discriminates Effect's active fields.
type EffectKind string

const (
	EffectPipelineInsert EffectKind = "pipeline.insert"
	EffectDebt           EffectKind = "debt"
	EffectIllusion       EffectKind = "ui.illusion"
	EffectWorkerStick    EffectKind = "worker.stick"
)

// CureSpec describes the multi-part maintenance ritual that cures an
// event: `maintenance.run=<job_id_template>,parts=N,time=T`.
type CureSpec struct {
	JobTemplate string
	Parts       int
	TotalTicks  int64
}

// CureProgress tracks an in-progress cure ritual.
type CureProgress struct {
	PartsDone      int
	TicksRemaining int64
}

// Done reports whether all parts of the cure have completed.
func (c CureProgress) Done(spec CureSpec) bool { return c.PartsDone >= spec.Parts }

// BlackSwanEvent is a rare, high-impact rule-gated event.
type BlackSwanEvent struct {
	ID       string
	Name     string
	Triggers []TriggerClause
	Effects  []Effect
	Cure     *CureSpec
	Weight   float64
	State    EventPhase
	Progress CureProgress
	// DebtIDs tracks debts this event created, so a cure can revert them.
	DebtIDs []string
}

// NewBlackSwanEvent creates a Dormant event definition.
func NewBlackSwanEvent(id, name string, triggers []TriggerClause, effects []Effect, cure *CureSpec, weight float64) *BlackSwanEvent {
	return &BlackSwanEvent{
		ID:       id,
		Name:     name,
		Triggers: triggers,
		Effects:  effects,
		Cure:     cure,
		Weight:   weight,
		State:    EventDormant,
	}
}
