// Package sample models per-sample experimental metadata as categorical
// factors with fixed, caller-declared level sets. Fixing the levels up front
// keeps design-matrix encoding identical across subset analyses that do not
// observe every level.
package sample

import (
	"fmt"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

// Record is one raw metadata row keyed by sample label.
type Record struct {
	ID     core.SampleLabel
	Values map[string]string
}

// LevelSpec declares the fixed, ordered level set for one categorical column.
type LevelSpec struct {
	Column string
	Levels []string
}

// Index returns the position of a level in the fixed ordering.
func (s LevelSpec) Index(level string) (int, bool) {
	for i, l := range s.Levels {
		if l == level {
			return i, true
		}
	}
	return 0, false
}

// LevelSpecs is an ordered collection of LevelSpec, one per factor column.
type LevelSpecs []LevelSpec

// Get returns the spec for a column, if declared.
func (s LevelSpecs) Get(column string) (LevelSpec, bool) {
	for _, spec := range s {
		if spec.Column == column {
			return spec, true
		}
	}
	return LevelSpec{}, false
}

// Columns returns the declared column names in order.
func (s LevelSpecs) Columns() []string {
	cols := make([]string, len(s))
	for i, spec := range s {
		cols[i] = spec.Column
	}
	return cols
}

// Factor is one categorical column over an ordered set of samples: the fixed
// level list plus, per sample, the index of its level in that list.
type Factor struct {
	Name   string
	Levels []string
	codes  []int
}

// NumLevels returns the size of the fixed level set, independent of which
// levels the current subset observes.
func (f *Factor) NumLevels() int { return len(f.Levels) }

// Codes returns the per-sample level indices. Callers must not mutate.
func (f *Factor) Codes() []int { return f.codes }

// Code returns the level index of sample i.
func (f *Factor) Code(i int) int { return f.codes[i] }

// Level returns the level name of sample i.
func (f *Factor) Level(i int) string { return f.Levels[f.codes[i]] }

// ObservedLevels counts the distinct levels actually present.
func (f *Factor) ObservedLevels() int {
	seen := make(map[int]struct{}, len(f.Levels))
	for _, c := range f.codes {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// Table is an immutable attribute table: one row per sample label, one Factor
// per declared categorical column.
type Table struct {
	labels  []core.SampleLabel
	factors []*Factor
	byName  map[string]int
}

// Len returns the number of sample rows.
func (t *Table) Len() int { return len(t.labels) }

// Labels returns a copy of the ordered sample labels.
func (t *Table) Labels() []core.SampleLabel {
	out := make([]core.SampleLabel, len(t.labels))
	copy(out, t.labels)
	return out
}

// Factor returns the factor for a column.
func (t *Table) Factor(column string) (*Factor, error) {
	i, ok := t.byName[column]
	if !ok {
		return nil, core.NewDesignError(column, "references an undefined column")
	}
	return t.factors[i], nil
}

// Columns returns the factor column names in declaration order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.factors))
	for i, f := range t.factors {
		cols[i] = f.Name
	}
	return cols
}

// Strata returns the per-sample block index for a column, for restricted
// permutation.
func (t *Table) Strata(column string) ([]int, error) {
	f, err := t.Factor(column)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(f.codes))
	copy(out, f.codes)
	return out, nil
}

// Subset extracts the rows for the given labels, in the given order, keeping
// every factor's fixed level set.
func (t *Table) Subset(labels []core.SampleLabel) (*Table, error) {
	pos := make(map[core.SampleLabel]int, len(t.labels))
	for i, l := range t.labels {
		pos[l] = i
	}
	idx := make([]int, len(labels))
	for k, l := range labels {
		i, ok := pos[l]
		if !ok {
			return nil, fmt.Errorf("%w: sample %q", core.ErrNotFound, l)
		}
		idx[k] = i
	}
	out := &Table{
		labels:  append([]core.SampleLabel(nil), labels...),
		factors: make([]*Factor, len(t.factors)),
		byName:  make(map[string]int, len(t.factors)),
	}
	for fi, f := range t.factors {
		codes := make([]int, len(idx))
		for k, i := range idx {
			codes[k] = f.codes[i]
		}
		out.factors[fi] = &Factor{Name: f.Name, Levels: f.Levels, codes: codes}
		out.byName[f.Name] = fi
	}
	return out, nil
}

// LabelsWhere returns the labels of samples whose column holds the given
// level, preserving row order. Used to carve per-day and per-source subsets.
func (t *Table) LabelsWhere(column, level string) ([]core.SampleLabel, error) {
	f, err := t.Factor(column)
	if err != nil {
		return nil, err
	}
	want, ok := LevelSpec{Column: column, Levels: f.Levels}.Index(level)
	if !ok {
		return nil, core.NewDesignError(column, fmt.Sprintf("level %q not in fixed levels", level))
	}
	var out []core.SampleLabel
	for i, c := range f.codes {
		if c == want {
			out = append(out, t.labels[i])
		}
	}
	return out, nil
}
