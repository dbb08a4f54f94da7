// Package permanova implements permutational multivariate analysis of
// variance on a distance matrix (PERMANOVA, the adonis procedure): sequential
// variance partitioning over a nested/crossed categorical design with
// permutation-derived significance.
package permanova

import (
	"context"
	"fmt"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/design"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
)

// DefaultPermutations matches the study configuration.
const DefaultPermutations = 9999

// Options configure one analysis invocation.
type Options struct {
	// Permutations requested; DefaultPermutations when zero. When the
	// design admits fewer distinct sample orderings than requested, the
	// engine enumerates them exhaustively instead of resampling.
	Permutations int

	// Seed drives the permutation stream. Identical inputs and seed
	// reproduce the result bit for bit.
	Seed int64

	// Strata, when non-nil, assigns each sample to a permutation block;
	// shuffles then stay within blocks (restricted permutation). Length
	// must equal the matrix dimension.
	Strata []int
}

// NullSummary describes the permutation null distribution of one effect's
// pseudo-F.
type NullSummary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P95    float64
	P99    float64
}

// Effect is one tested term of the design.
type Effect struct {
	Name   string
	Df     int
	SumSq  float64
	MeanSq float64
	F      float64
	R2     float64
	P      float64
	Null   NullSummary
}

// Row is an untested accounting row (residual, total).
type Row struct {
	Df    int
	SumSq float64
	R2    float64
}

// Result is the ordered variance partition for one analysis. Immutable once
// returned; R² across effects plus the residual sums to 1.
type Result struct {
	Formula      string
	N            int
	Permutations int
	Exhaustive   bool
	Seed         int64
	Design       core.DesignHash
	Effects      []Effect
	Residual     Row
	Total        Row
}

// Effect returns the named effect row, if present.
func (r *Result) Effect(name string) (Effect, bool) {
	for _, e := range r.Effects {
		if e.Name == name {
			return e, true
		}
	}
	return Effect{}, false
}

// Analyze partitions the distance variance across the formula's terms in
// order (sequential, Type I reduction) and derives per-term p-values by
// (possibly restricted, possibly exhaustive) permutation.
func Analyze(ctx context.Context, m *dist.Matrix, attrs *sample.Table, f *design.Formula, opts Options) (*Result, error) {
	n := m.Len()
	if attrs.Len() != n {
		return nil, core.NewDimensionError(n, attrs.Len())
	}
	tableLabels := attrs.Labels()
	for i, l := range m.Labels() {
		if tableLabels[i] != l {
			return nil, fmt.Errorf("%w: row %d is %q in the matrix but %q in the attribute table",
				core.ErrDimension, i, l, tableLabels[i])
		}
	}
	if opts.Permutations <= 0 {
		opts.Permutations = DefaultPermutations
	}
	if opts.Strata != nil && len(opts.Strata) != n {
		return nil, fmt.Errorf("%w: %d strata assignments for %d samples", core.ErrDimension, len(opts.Strata), n)
	}

	terms := f.Terms()
	if len(terms) == 0 {
		return nil, core.NewDesignError(f.String(), "formula has no terms")
	}

	part, err := newPartition(m, attrs, terms)
	if err != nil {
		return nil, err
	}

	gen, err := newPermuter(n, opts)
	if err != nil {
		return nil, err
	}

	res, err := part.run(ctx, gen, opts)
	if err != nil {
		return nil, err
	}
	res.Formula = f.String()
	res.Seed = opts.Seed
	res.Design = core.NewDesignHash(f.String(), opts.Seed, opts.Permutations, strataKey(opts.Strata))
	return res, nil
}

func strataKey(strata []int) string {
	if strata == nil {
		return ""
	}
	return fmt.Sprint(strata)
}
