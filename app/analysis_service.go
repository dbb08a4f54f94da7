package app

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/stats/permanova"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/design"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/report"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/run"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/internal"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/ports"
)

// AnalysisService runs PERMANOVA analyses over study subsets and persists the
// aggregated tables.
type AnalysisService struct {
	rng     ports.RNG
	results ports.ResultRepository // optional; nil disables persistence
	log     *internal.Logger
}

// NewAnalysisService creates an analysis service. results may be nil when
// only file output is wanted.
func NewAnalysisService(rng ports.RNG, results ports.ResultRepository) *AnalysisService {
	return &AnalysisService{
		rng:     rng,
		results: results,
		log:     internal.DefaultLogger,
	}
}

// AnalyzeRequest describes one analysis over an aligned matrix/table pair.
type AnalyzeRequest struct {
	Matrix       *dist.Matrix
	Attrs        *sample.Table
	Formula      *design.Formula
	Permutations int
	Seed         int64

	// StrataColumn, when set, restricts permutations within the levels of
	// that factor (repeated measures per mouse).
	StrataColumn string
}

// Analyze runs a single PERMANOVA.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*permanova.Result, error) {
	opts := permanova.Options{Permutations: req.Permutations, Seed: req.Seed}
	if req.StrataColumn != "" {
		strata, err := req.Attrs.Strata(req.StrataColumn)
		if err != nil {
			return nil, err
		}
		opts.Strata = strata
	}
	res, err := permanova.Analyze(ctx, req.Matrix, req.Attrs, req.Formula, opts)
	if err != nil {
		return nil, err
	}
	s.log.Info("analyzed %d samples under %q: %d effects, %d permutations (exhaustive=%v)",
		res.N, res.Formula, len(res.Effects), res.Permutations, res.Exhaustive)
	return res, nil
}

// SweepRequest runs the same design over every listed level of a subset
// column (each day, or each source).
type SweepRequest struct {
	Matrix       *dist.Matrix
	Attrs        *sample.Table // full table, aligned with Matrix
	Formula      *design.Formula
	SubsetColumn string
	Subsets      []string // levels to analyze, in reporting order
	Permutations int
	Seed         int64
	StrataColumn string
}

// SweepOutcome carries the per-subset results, their aggregation, and the
// reproducibility manifest.
type SweepOutcome struct {
	Manifest *run.Manifest
	Entries  []SubsetResult
	Table    *report.Table
}

// RunSweep analyzes each subset independently and aggregates. Subsets are
// data-independent, so they fan out in parallel; per-subset seeds are derived
// deterministically from the base seed, keeping the sweep reproducible
// regardless of scheduling.
func (s *AnalysisService) RunSweep(ctx context.Context, req SweepRequest) (*SweepOutcome, error) {
	if len(req.Subsets) == 0 {
		return nil, core.NewValidationError("sweep", "no subsets requested")
	}
	if req.Permutations <= 0 {
		req.Permutations = permanova.DefaultPermutations
	}
	runID := core.RunID(core.NewID())
	manifest := run.NewManifest(runID, req.Formula.String(), req.Seed, req.Permutations,
		req.StrataColumn, hashInputs(req.Matrix, req.Attrs))

	entries := make([]SubsetResult, len(req.Subsets))
	g, gctx := errgroup.WithContext(ctx)
	for i, subset := range req.Subsets {
		i, subset := i, subset
		g.Go(func() error {
			labels, err := req.Attrs.LabelsWhere(req.SubsetColumn, subset)
			if err != nil {
				return err
			}
			if len(labels) == 0 {
				return fmt.Errorf("%w: subset %s=%s has no samples", core.ErrNotFound, req.SubsetColumn, subset)
			}
			m, err := req.Matrix.Subset(labels)
			if err != nil {
				return err
			}
			attrs, err := req.Attrs.Subset(labels)
			if err != nil {
				return err
			}
			res, err := s.Analyze(gctx, AnalyzeRequest{
				Matrix:       m,
				Attrs:        attrs,
				Formula:      req.Formula,
				Permutations: req.Permutations,
				Seed:         s.rng.SeedFor(runID, subset, req.Seed),
				StrataColumn: req.StrataColumn,
			})
			if err != nil {
				return fmt.Errorf("subset %s=%s: %w", req.SubsetColumn, subset, err)
			}
			entries[i] = SubsetResult{Subset: subset, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SweepOutcome{
		Manifest: manifest,
		Entries:  entries,
		Table:    Aggregate(req.SubsetColumn, entries),
	}, nil
}

// Persist writes the manifest and aggregated table through the configured
// repository. A no-op when no repository was wired.
func (s *AnalysisService) Persist(ctx context.Context, out *SweepOutcome) error {
	if s.results == nil {
		return nil
	}
	if err := s.results.SaveManifest(ctx, out.Manifest); err != nil {
		return err
	}
	return s.results.SaveTable(ctx, out.Manifest, out.Table)
}

// hashInputs fingerprints the parsed analysis inputs: labels, distances and
// factor codings.
func hashInputs(m *dist.Matrix, attrs *sample.Table) core.InputHash {
	fields := make([]string, 0, m.Len()*2)
	for i, l := range m.Labels() {
		fields = append(fields, string(l))
		for j := 0; j < i; j++ {
			fields = append(fields, strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
	}
	for _, col := range attrs.Columns() {
		f, err := attrs.Factor(col)
		if err != nil {
			continue
		}
		fields = append(fields, col)
		fields = append(fields, f.Levels...)
		for _, c := range f.Codes() {
			fields = append(fields, strconv.Itoa(c))
		}
	}
	return core.InputHash(core.HashFields(fields...))
}
