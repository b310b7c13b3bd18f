// Package modcap mediates mod/script mutations against a declared
// capability set: a closed list of host functions a mod may invoke, a
// fuel/instruction budget per invocation, and a dedicated RNG
// substream so mod-triggered stochastic decisions stay replayable.
package modcap

import (
	"fmt"
	"sync"

	"github.com/blackswan-colony/simcore/pkg/rng"
)

// Capability names one host function surface a mod may request.
type Capability string

const (
	CapReadKPI        Capability = "read_kpi"
	CapSubmitJob       Capability = "submit_job"
	CapMutatePipeline Capability = "mutate_pipeline"
	CapRegisterEvent   Capability = "register_event"
	CapRegisterTech    Capability = "register_tech"
	CapRegisterRitual Capability = "register_ritual"
)

// allCapabilities is the closed set; requesting anything outside it is
// a CapabilityDenied error at grant time, not invocation time.
var allCapabilities = map[Capability]bool{
	CapReadKPI: true, CapSubmitJob: true, CapMutatePipeline: true,
	CapRegisterEvent: true, CapRegisterTech: true, CapRegisterRitual: true,
}

// CapabilityDenied reports a mod invocation attempting an unpermitted
// host call, or a grant request naming an unknown capability.
type CapabilityDenied struct {
	ModID      string
	Capability Capability
}

func (e CapabilityDenied) Error() string {
	return fmt.Sprintf("mod %s: capability %q denied", e.ModID, e.Capability)
}

// BudgetExhausted reports a mod invocation hitting its fuel or
// instruction ceiling; the invocation is aborted and its partial
// mutations are discarded.
type BudgetExhausted struct {
	ModID string
}

func (e BudgetExhausted) Error() string { return fmt.Sprintf("mod %s: fuel/instruction budget exhausted", e.ModID) }

// Grant is the capability set and resource ceilings a mod has been
// approved for.
type Grant struct {
	ModID        string
	Capabilities map[Capability]bool
	FuelBudget   int64
	MemoryCeil   int64
}

// NewGrant validates that every requested capability is in the closed
// set and returns a Grant, or a CapabilityDenied for the first unknown
// one.
func NewGrant(modID string, requested []Capability, fuelBudget, memoryCeil int64) (*Grant, error) {
	caps := make(map[Capability]bool, len(requested))
	for _, c := range requested {
		if !allCapabilities[c] {
			return nil, CapabilityDenied{ModID: modID, Capability: c}
		}
		caps[c] = true
	}
	return &Grant{ModID: modID, Capabilities: caps, FuelBudget: fuelBudget, MemoryCeil: memoryCeil}, nil
}

// Gate enforces capability grants and per-invocation fuel budgets
// across every mod registered for a session; it is the sole entry
// point mod-supplied code mutates world state through (by emitting
// intents, never by direct mutation).
type Gate struct {
	mu      sync.Mutex
	grants  map[string]*Grant
	streams *rng.Registry
}

// NewGate creates a capability gate rooted at the session's RNG
// registry so each mod can be handed its own dedicated substream (every
// invocation of the same mod draws from that one stream).
func NewGate(streams *rng.Registry) *Gate {
	return &Gate{grants: map[string]*Grant{}, streams: streams}
}

// Register installs a mod's grant, replacing any prior grant for the
// same mod id.
func (g *Gate) Register(grant *Grant) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grants[grant.ModID] = grant
}

// Deregister removes a mod's grant entirely, the way a disabled mod
// leaves the registry.
func (g *Gate) Deregister(modID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.grants, modID)
}

// Grants returns every registered grant, for listing endpoints. Order
// is unspecified; callers needing determinism should sort by ModID.
func (g *Gate) Grants() []*Grant {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Grant, 0, len(g.grants))
	for _, grant := range g.grants {
		out = append(out, grant)
	}
	return out
}

// Invocation tracks one mod call's remaining fuel.
type Invocation struct {
	ModID        string
	RemainingFuel int64
	Stream       *rng.Stream
}

// Begin starts an invocation for modID, requiring it to hold
// capability. Returns CapabilityDenied if the mod lacks the
// capability.
func (g *Gate) Begin(modID string, capability Capability) (*Invocation, error) {
	g.mu.Lock()
	grant, ok := g.grants[modID]
	g.mu.Unlock()
	if !ok || !grant.Capabilities[capability] {
		return nil, CapabilityDenied{ModID: modID, Capability: capability}
	}
	return &Invocation{
		ModID:         modID,
		RemainingFuel: grant.FuelBudget,
		Stream:        g.streams.Stream(rng.StreamMod + ":" + modID),
	}, nil
}

// Spend deducts fuel for one host call; returns BudgetExhausted once
// the invocation's fuel is exceeded, signaling the caller to abort and
// discard the invocation's partial mutations.
func (inv *Invocation) Spend(cost int64) error {
	inv.RemainingFuel -= cost
	if inv.RemainingFuel < 0 {
		return BudgetExhausted{ModID: inv.ModID}
	}
	return nil
}
