// Package app wires the parsing, joining and analysis pieces into the study's
// workflows: whole-community analysis, per-day and per-source sweeps, and
// ordination export.
package app

import (
	"sort"
	"strconv"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/design"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
)

// Metadata column names used throughout the study.
const (
	ColSource     = "source"
	ColCage       = "cage"
	ColUniqueCage = "unique_cage"
	ColExperiment = "experiment"
	ColRun        = "run"
	ColDay        = "day"
	ColMouse      = "mouse_id"
)

// Study design formulas. Term order is the scientifically intended sequential
// decomposition and must not be reordered.
var (
	// FormulaFull partitions the whole time course: source with cage
	// nested, crossed with experiment and run, crossed with day.
	FormulaFull = design.MustParse("source/(cage*experiment*run)*day")

	// FormulaPerDay is the within-day design, day term dropped.
	FormulaPerDay = design.MustParse("source/(cage*experiment*run)")

	// FormulaPerSource tests cage and timepoint structure within one
	// vendor source.
	FormulaPerSource = design.MustParse("unique_cage*day")
)

// DayLevels is the fixed day ordering used for every analysis, whether or not
// a particular subset observes each day. D-1 is the pre-infection baseline.
var DayLevels = []string{"-1", "0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// StudyColumns are the metadata columns coerced to factors, in the encoding
// order shared by every analysis.
var StudyColumns = []string{ColSource, ColCage, ColUniqueCage, ColExperiment, ColRun, ColDay, ColMouse}

// StudyLevelSpecs derives one fixed level set per study column from the FULL
// metadata table. Deriving once from the full table and reusing the specs for
// every subset keeps factor encoding identical across subsets that miss
// levels. The day column always gets the canonical DayLevels sequence.
func StudyLevelSpecs(records []sample.Record) (sample.LevelSpecs, error) {
	specs := make(sample.LevelSpecs, 0, len(StudyColumns))
	for _, col := range StudyColumns {
		if col == ColDay {
			specs = append(specs, sample.LevelSpec{Column: ColDay, Levels: DayLevels})
			continue
		}
		seen := make(map[string]struct{})
		var levels []string
		for _, r := range records {
			v, ok := r.Values[col]
			if !ok {
				return nil, core.NewDesignError(col, "metadata table has no such column")
			}
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				levels = append(levels, v)
			}
		}
		sortLevels(levels)
		specs = append(specs, sample.LevelSpec{Column: col, Levels: levels})
	}
	return specs, nil
}

// sortLevels orders levels numerically when every level parses as a number,
// lexicographically otherwise. Numeric ordering matters for run/experiment
// columns so the encoding stays intuitive in reports.
func sortLevels(levels []string) {
	numeric := true
	for _, l := range levels {
		if _, err := strconv.ParseFloat(l, 64); err != nil {
			numeric = false
			break
		}
	}
	sort.Slice(levels, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseFloat(levels[i], 64)
			b, _ := strconv.ParseFloat(levels[j], 64)
			return a < b
		}
		return levels[i] < levels[j]
	})
}
