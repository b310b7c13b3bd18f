// Package rng implements a deterministic, named-stream PRNG registry.
// Every stochastic decision in the tick pipeline draws from a named
// stream so that two replays of the same seed and intent log produce
// bit-identical draws in the same order.
package rng

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Canonical stream names. Call sites must use these constants rather
// than ad hoc strings so that stream isolation stays auditable by grep.
const (
	StreamFault      = "fault"
	StreamBlackSwan  = "black_swan"
	StreamMutation   = "mutation"
	StreamMod        = "mod"
)

// Registry holds the session's root seed and lazily derives named
// sub-streams from it.
type Registry struct {
	rootSeed uint64
	streams  map[string]*Stream
}

// New creates a registry rooted at scenarioSeed XOR sessionID.
func New(scenarioSeed, sessionID uint64) *Registry {
	return &Registry{
		rootSeed: scenarioSeed ^ sessionID,
		streams:  map[string]*Stream{},
	}
}

// RootSeed returns the registry's combined root seed, for persisting
// into a snapshot alongside per-stream counters.
func (r *Registry) RootSeed() uint64 { return r.rootSeed }

// Stream returns the named sub-stream, deriving it on first use.
func (r *Registry) Stream(name string) *Stream {
	if s, ok := r.streams[name]; ok {
		return s
	}
	s := newStream(deriveSeed(r.rootSeed, name))
	r.streams[name] = s
	return s
}

// StreamNames returns the names of every stream that has been touched
// this session, in ascending lexical order -- used when serializing
// per-stream RNG state into a snapshot.
func (r *Registry) StreamNames() []string {
	names := make([]string, 0, len(r.streams))
	for n := range r.streams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RestoreStream installs an explicit counter for a named stream,
// used when loading a snapshot.
func (r *Registry) RestoreStream(name string, counter uint64) {
	r.streams[name] = &Stream{counter: counter, seed: deriveSeed(r.rootSeed, name)}
}

// Counter exposes a stream's current counter, for snapshotting.
func (s *Stream) Counter() uint64 { return s.counter }

func deriveSeed(rootSeed uint64, name string) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%d:%s", rootSeed, name))
}

// Stream is a single named counter-mode PRNG stream.
type Stream struct {
	seed    uint64
	counter uint64
}

func newStream(seed uint64) *Stream {
	return &Stream{seed: seed}
}

// u64 draws the next raw 64-bit value using splitmix64, seeded by
// hash(seed, counter) -- the same (seed, counter) pair always produces
// the same draw, which is the whole of the determinism contract.
func (s *Stream) u64() uint64 {
	s.counter++
	z := s.seed + s.counter*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// U64 draws a raw uniform uint64.
func (s *Stream) U64() uint64 { return s.u64() }

// F01 draws a uniform float64 in [0,1).
func (s *Stream) F01() float64 {
	// 53 bits of mantissa precision, matching math/rand's Float64.
	return float64(s.u64()>>11) / float64(1<<53)
}

// Choice performs an inverse-CDF draw over non-negative weights in
// canonical (index) order and returns the chosen index. Ties among
// zero-weight entries never win unless every weight is zero, in which
// case index 0 is returned. Panics if weights is empty.
func (s *Stream) Choice(weights []float64) int {
	if len(weights) == 0 {
		panic("rng: Choice called with no weights")
	}
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	target := s.F01() * total
	var acc float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}
