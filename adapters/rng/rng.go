// Package rng provides the deterministic seeded-randomness adapter: per-subset
// seeds are derived by hashing, so parallel subset analyses get independent
// but fully reproducible permutation streams.
package rng

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/ports"
)

type deterministic struct{}

// NewDeterministic creates the hash-derived RNG adapter.
func NewDeterministic() ports.RNG {
	return deterministic{}
}

// SeedFor hashes the subset name with the base seed. The run ID is excluded
// on purpose: replaying a sweep under a fresh run ID must reproduce every
// subset's stream.
func (deterministic) SeedFor(_ core.RunID, subset string, base int64) int64 {
	h := core.HashFields(subset, fmt.Sprintf("%d", base))
	raw, err := hex.DecodeString(h.String()[:16])
	if err != nil {
		// cannot happen: HashFields emits hex
		return base
	}
	return int64(binary.BigEndian.Uint64(raw))
}

func (deterministic) SeededStream(_ string, seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
