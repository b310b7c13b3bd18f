package tick

// TimeScale controls how many ticks elapse per unit of real time.
type TimeScale string

const (
	ScaleRealTime TimeScale = "real_time"
	ScaleSeconds  TimeScale = "seconds"
	ScaleHours    TimeScale = "hours"
	ScaleDays     TimeScale = "days"
	ScaleWeeks    TimeScale = "weeks"
	ScaleYears    TimeScale = "years"
)

// ticksPerRealSecond maps each named scale to how many ticks a real
// second of wall clock advances, at the default tick_ms=100. Pause is
// represented separately (TicksPerRealSecond()==0), not as a scale value.
var ticksPerRealSecond = map[TimeScale]float64{
	ScaleRealTime: 10,   // 100ms/tick
	ScaleSeconds:  10,
	ScaleHours:    36000,
	ScaleDays:     864000,
	ScaleWeeks:    6048000,
	ScaleYears:    315360000,
}

// Clock tracks the session's time-scale control: pause zeroes the
// rate, fast-forward uncaps it.
type Clock struct {
	Scale       TimeScale
	Paused      bool
	FastForward bool
}

// NewClock creates a clock at RealTime, unpaused.
func NewClock() *Clock {
	return &Clock{Scale: ScaleRealTime}
}

// TicksPerRealSecond returns how many ticks should advance per real
// second right now: 0 if paused, unbounded (reported as -1, meaning
// "drain as fast as possible") if fast-forwarding, else the scale's
// nominal rate.
func (c *Clock) TicksPerRealSecond() float64 {
	if c.Paused {
		return 0
	}
	if c.FastForward {
		return -1
	}
	return ticksPerRealSecond[c.Scale]
}

// SessionState is the coarse phase of a play session.
type SessionState string

const (
	SessionRunning SessionState = "running"
	SessionWon     SessionState = "won"
	SessionLost    SessionState = "lost"
)

// Clause is one victory or loss condition, evaluated against KPI
// aggregates at the end of every tick; Evaluator.Check receives a
// metric-name->value lookup already resolved for the configured window.
type Clause struct {
	Metric string
	Op     string // >,>=,<,<=,==
	Value  float64
}

// Evaluate reports whether the clause currently holds, given the
// metric's current value.
func (c Clause) Evaluate(value float64) bool {
	switch c.Op {
	case ">":
		return value > c.Value
	case ">=":
		return value >= c.Value
	case "<":
		return value < c.Value
	case "<=":
		return value <= c.Value
	case "==":
		return value == c.Value
	default:
		return false
	}
}

// Evaluator holds a scenario's victory and loss clause sets; all
// clauses within a set are ANDed.
type Evaluator struct {
	Victory []Clause
	Loss    []Clause
}

// Check evaluates both clause sets against a metric lookup and returns
// the resulting session state transition, or SessionRunning if neither
// is satisfied. Loss is checked first: a scenario that is simultaneously
// won and lost (malformed authoring) ends in loss, since safety takes
// priority over reward.
func (e Evaluator) Check(metric func(name string) (float64, bool)) SessionState {
	if allHold(e.Loss, metric) {
		return SessionLost
	}
	if allHold(e.Victory, metric) {
		return SessionWon
	}
	return SessionRunning
}

func allHold(clauses []Clause, metric func(string) (float64, bool)) bool {
	if len(clauses) == 0 {
		return false
	}
	for _, c := range clauses {
		v, ok := metric(c.Metric)
		if !ok || !c.Evaluate(v) {
			return false
		}
	}
	return true
}

// AutosavePolicy fires an autosave on the first tick boundary at or
// after the configured interval has elapsed since the last autosave.
type AutosavePolicy struct {
	IntervalTicks int64
	lastSaveTick  int64
}

// ShouldSave reports whether an autosave should fire at currentTick,
// and if so advances the internal bookkeeping so the next check
// measures from this tick.
func (a *AutosavePolicy) ShouldSave(currentTick int64) bool {
	if a.IntervalTicks <= 0 {
		return false
	}
	if currentTick-a.lastSaveTick >= a.IntervalTicks {
		a.lastSaveTick = currentTick
		return true
	}
	return false
}
