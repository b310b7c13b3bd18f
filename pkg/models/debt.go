package models

// DebtSignal names the resource or fault-rate multiplier a Debt affects.
type DebtSignal string

const (
	DebtPowerMult     DebtSignal = "power_mult"
	DebtHeatMult      DebtSignal = "heat_mult"
	DebtBandwidthMult DebtSignal = "bw_mult"
	DebtFaultRateMult DebtSignal = "fault_rate_mult"
)

// Debt is a time-bounded multiplicative modifier on a resource or fault
// signal, created by a Black Swan effect.
type Debt struct {
	ID             string // "<event id>:<signal>"
	SourceEventID  string
	Signal         DebtSignal
	Magnitude      float64
	RemainingTicks int64
}

// Tick decrements the remaining duration by one tick. Returns true once
// the debt has expired and should be removed.
func (d *Debt) Tick() bool {
	d.RemainingTicks--
	return d.RemainingTicks <= 0
}

// Expired reports whether the debt has already run out.
func (d *Debt) Expired() bool { return d.RemainingTicks <= 0 }
