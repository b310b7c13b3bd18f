// Package research advances unlock-gated technology research and
// multi-part maintenance rituals (the timed debuffs and cure chains
// Black Swan events schedule).
package research

import "github.com/blackswan-colony/simcore/pkg/models"

// UnlockGate reports whether a tech's prerequisites are satisfied.
type UnlockGate struct {
	Requires map[string][]string // techID -> prerequisite techIDs
}

// CanStart reports whether every prerequisite of techID is already
// unlocked.
func (g UnlockGate) CanStart(r *models.Research, techID string) bool {
	for _, req := range g.Requires[techID] {
		if !r.IsUnlocked(req) {
			return false
		}
	}
	return true
}

// TickDebts decrements every active debt by one tick and returns the
// ids of debts that expired this tick (the caller removes them from
// its ledger).
func TickDebts(debts []*models.Debt) []string {
	var expired []string
	for _, d := range debts {
		if d.Tick() {
			expired = append(expired, d.ID)
		}
	}
	return expired
}

// Ritual is a scheduled multi-part maintenance sequence consuming
// worker-ticks at a workyard, started by a Black Swan cure spec or a
// player-issued maintenance_start intent.
type Ritual struct {
	WorkyardID   models.WorkyardID
	PartsTotal   int
	PartsDone    int
	TicksPerPart int64
	TicksInPart  int64
}

// NewRitual creates a ritual spread evenly across its parts.
func NewRitual(yard models.WorkyardID, parts int, totalTicks int64) *Ritual {
	perPart := int64(0)
	if parts > 0 {
		perPart = totalTicks / int64(parts)
	}
	return &Ritual{WorkyardID: yard, PartsTotal: parts, TicksPerPart: perPart}
}

// Advance consumes one worker-tick of ritual progress. Returns true
// once a part completes this call, and true for allDone once every
// part is complete.
func (rt *Ritual) Advance() (partDone bool, allDone bool) {
	if rt.PartsDone >= rt.PartsTotal {
		return false, true
	}
	rt.TicksInPart++
	if rt.TicksInPart >= rt.TicksPerPart {
		rt.TicksInPart = 0
		rt.PartsDone++
		partDone = true
	}
	allDone = rt.PartsDone >= rt.PartsTotal
	return partDone, allDone
}
