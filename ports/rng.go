package ports

import (
	"math/rand"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

// RNG provides seeded randomness for deterministic analyses.
type RNG interface {
	// SeedFor derives an independent, reproducible seed for a named
	// subset analysis within a run. Subsets analyzed in parallel must not
	// share a permutation stream, and re-running with the same base seed
	// must reproduce every subset's stream.
	SeedFor(runID core.RunID, subset string, base int64) int64

	// SeededStream creates a deterministic random number generator for a
	// named operation.
	SeededStream(name string, seed int64) *rand.Rand
}
