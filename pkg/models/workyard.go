package models

// MaintenancePhase discriminates Workyard.Maintenance.
type MaintenancePhase string

const (
	MaintenanceNone   MaintenancePhase = "none"
	MaintenanceActive MaintenancePhase = "active"
)

// Maintenance is the tagged variant for a workyard's maintenance state:
// None, or Active(remaining_ticks, effect).
type Maintenance struct {
	Phase          MaintenancePhase
	RemainingTicks int
	Effect         string
}

// Workyard hosts workers of a single class and is bounded by heat and
// power caps.
type Workyard struct {
	ID                    WorkyardID
	Class                 WorkerClass
	Capacity              int // worker slots
	Heat                  float64
	HeatCap               float64
	PowerDraw             float64
	BasePowerCap          float64
	ThermalThrottleFactor float64 // [0,1]
	Maintenance           Maintenance
}

// NewWorkyard creates a workyard at rest (no heat, no throttle).
func NewWorkyard(id WorkyardID, class WorkerClass, capacity int, heatCap, powerCap float64) *Workyard {
	return &Workyard{
		ID:                    id,
		Class:                 class,
		Capacity:              capacity,
		HeatCap:               heatCap,
		BasePowerCap:          powerCap,
		ThermalThrottleFactor: 1,
		Maintenance:           Maintenance{Phase: MaintenanceNone},
	}
}

// HeatNorm returns heat as a fraction of heat cap, in [0,1].
func (y *Workyard) HeatNorm() float64 {
	if y.HeatCap <= 0 {
		return 0
	}
	return Clamp01(y.Heat / y.HeatCap)
}

// RecomputeThrottle applies the thermal throttle curve: a yard running
// under 80% of its heat cap throttles not at all, scaling linearly to
// zero throughput as heat approaches the cap.
func (y *Workyard) RecomputeThrottle() {
	over := y.HeatNorm() - 0.8
	if over < 0 {
		over = 0
	}
	y.ThermalThrottleFactor = Clamp01(1 - over/0.2)
}

// InMaintenance reports whether the yard is undergoing active
// maintenance (ritual parts consuming worker-ticks).
func (y *Workyard) InMaintenance() bool {
	return y.Maintenance.Phase == MaintenanceActive
}

// StartMaintenance begins an Active maintenance window.
func (y *Workyard) StartMaintenance(ticks int, effect string) {
	y.Maintenance = Maintenance{Phase: MaintenanceActive, RemainingTicks: ticks, Effect: effect}
}

// TickMaintenance decrements the maintenance countdown, clearing it at
// zero. Returns true if maintenance just completed this call.
func (y *Workyard) TickMaintenance() bool {
	if y.Maintenance.Phase != MaintenanceActive {
		return false
	}
	y.Maintenance.RemainingTicks--
	if y.Maintenance.RemainingTicks <= 0 {
		y.Maintenance = Maintenance{Phase: MaintenanceNone}
		return true
	}
	return false
}
