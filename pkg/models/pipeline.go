package models

// Pipeline is an ordered sequence of op kinds a job walks through.
type Pipeline struct {
	ID         string
	Ops        []OpKind
	QoS        QoS
	DeadlineMs int64
	PayloadSz  int64
	Mutations  []GeneTag // heritable mutations applied by Black Swan effects
	PendingCap int       // backpressure: max concurrently Queued+Running jobs
}

// GeneTag records one heritable pipeline mutation: once applied, every
// job submitted against this pipeline definition inherits it.
type GeneTag struct {
	EventID  string
	Op       OpKind
	Position int // index the op was inserted at (the new last index for an append)
}

// Validate checks structural invariants of a pipeline definition.
func (p *Pipeline) Validate() error {
	var errs ValidationErrors
	errs.AddIf(p.ID == "", "ID", p.ID, "pipeline id cannot be empty")
	errs.AddIf(len(p.Ops) == 0, "Ops", p.Ops, "pipeline must have at least one op")
	errs.AddIf(!p.QoS.IsValid(), "QoS", p.QoS, "unknown QoS class")
	errs.AddIf(p.DeadlineMs < 0, "DeadlineMs", p.DeadlineMs, "must be non-negative")
	errs.AddIf(p.PayloadSz < 0, "PayloadSz", p.PayloadSz, "must be non-negative")
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ApplyMutation inserts an op at the given position (or appends when
// position is negative or past the end) and records the gene tag. It
// does not know about yard classes and does not check which class the
// inserted op routes to; blackswan.Fire's pipeline.insert effect calls
// it without such a check either.
func (p *Pipeline) ApplyMutation(eventID string, op OpKind, position int) {
	if position < 0 || position > len(p.Ops) {
		p.Ops = append(p.Ops, op)
		position = len(p.Ops) - 1
	} else {
		p.Ops = append(p.Ops[:position], append([]OpKind{op}, p.Ops[position:]...)...)
	}
	p.Mutations = append(p.Mutations, GeneTag{EventID: eventID, Op: op, Position: position})
}

// DeadlineTicks converts the deadline in milliseconds to a tick count,
// rounding up: deadline_tick = submitted + ceil(deadline_ms/tick_ms).
func (p *Pipeline) DeadlineTicks(tickMs int64) int64 {
	if tickMs <= 0 {
		return 0
	}
	return (p.DeadlineMs + tickMs - 1) / tickMs
}
