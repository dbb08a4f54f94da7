// Package run records the reproducibility manifest of one analysis sweep:
// everything needed to replay the run and verify its determinism.
package run

import (
	"encoding/json"
	"time"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

// Manifest is the truth source for replaying a sweep: it must exist before
// any result row is persisted.
type Manifest struct {
	RunID        core.RunID      `json:"run_id"`
	Formula      string          `json:"formula"`
	Seed         int64           `json:"seed"`
	Permutations int             `json:"permutations"`
	Strata       string          `json:"strata,omitempty"`
	InputHash    core.InputHash  `json:"input_hash"`
	DesignHash   core.DesignHash `json:"design_hash"`
	Fingerprint  core.Hash       `json:"fingerprint"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewManifest assembles a manifest and its determinism fingerprint. The
// fingerprint covers every parameter that can change a result; two runs with
// equal fingerprints must produce bit-identical result tables.
func NewManifest(runID core.RunID, formula string, seed int64, permutations int, strata string, inputHash core.InputHash) *Manifest {
	designHash := core.NewDesignHash(formula, seed, permutations, strata)
	return &Manifest{
		RunID:        runID,
		Formula:      formula,
		Seed:         seed,
		Permutations: permutations,
		Strata:       strata,
		InputHash:    inputHash,
		DesignHash:   designHash,
		Fingerprint:  core.HashFields(string(inputHash), string(designHash)),
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.Formula == "" {
		return core.NewValidationError("run_manifest", "formula cannot be empty")
	}
	if m.Permutations <= 0 {
		return core.NewValidationError("run_manifest", "permutations must be positive")
	}
	if core.Hash(m.InputHash).IsEmpty() {
		return core.NewValidationError("run_manifest", "input_hash cannot be empty")
	}
	return nil
}

// MarshalJSON keeps timestamps second-resolution so manifests round-trip
// stably across filesystems.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	type alias Manifest
	a := alias(*m)
	a.CreatedAt = a.CreatedAt.Truncate(time.Second)
	return json.Marshal(a)
}
