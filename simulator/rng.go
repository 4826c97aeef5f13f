package simulator

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names a slice of the simulation's randomness that must be
// reproducible independent of how much entropy other slices consume.
// Mirrors the partitioned-RNG discipline used elsewhere in this codebase's
// lineage: one seed, many independently-seeded derived streams.
type Subsystem string

const (
	// SubsystemMachines drives maybenot.Framework state sampling.
	SubsystemMachines Subsystem = "machines"
	// SubsystemNetwork drives simulated network delay/jitter.
	SubsystemNetwork Subsystem = "network"
)

// PartitionedRNG derives a distinct, deterministic *rand.Rand per
// Subsystem from a single master seed, so that e.g. adding network jitter
// never perturbs the machine-sampling stream.
type PartitionedRNG struct {
	seed       int64
	subsystems map[Subsystem]*rand.Rand
}

// NewPartitionedRNG returns a PartitionedRNG rooted at seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{seed: seed, subsystems: make(map[Subsystem]*rand.Rand)}
}

// Seed returns the master seed this PartitionedRNG was constructed with.
func (p *PartitionedRNG) Seed() int64 { return p.seed }

// For returns the *rand.Rand for name, creating and caching it on first
// use. The derived seed is the master seed XORed with an FNV-1a64 hash of
// name, so distinct subsystem names never collide in practice.
func (p *PartitionedRNG) For(name Subsystem) *rand.Rand {
	if r, ok := p.subsystems[name]; ok {
		return r
	}
	r := rand.New(rand.NewSource(p.seed ^ fnv1a64(string(name))))
	p.subsystems[name] = r
	return r
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
