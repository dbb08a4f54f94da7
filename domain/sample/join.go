package sample

import (
	"fmt"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

// JoinOptions control how labels without metadata rows are treated.
type JoinOptions struct {
	// InnerJoin drops labels with no metadata row instead of failing.
	// Only safe for subsets already filtered upstream; the default (false)
	// treats an unmatched label as a correctness hazard.
	InnerJoin bool
}

// Join attaches metadata to an ordered label set, coercing every declared
// column into a fixed-level factor. The resulting table rows follow the label
// order (minus dropped rows under InnerJoin).
func Join(labels []core.SampleLabel, records []Record, specs LevelSpecs, opts JoinOptions) (*Table, error) {
	byID := make(map[core.SampleLabel]Record, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate metadata row for sample %q", core.ErrFormat, r.ID)
		}
		byID[r.ID] = r
	}

	kept := make([]core.SampleLabel, 0, len(labels))
	rows := make([]Record, 0, len(labels))
	for _, l := range labels {
		r, ok := byID[l]
		if !ok {
			if opts.InnerJoin {
				continue
			}
			return nil, core.NewJoinError(string(l))
		}
		kept = append(kept, l)
		rows = append(rows, r)
	}

	t := &Table{
		labels:  kept,
		factors: make([]*Factor, 0, len(specs)),
		byName:  make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		codes := make([]int, len(rows))
		for i, r := range rows {
			v, ok := r.Values[spec.Column]
			if !ok {
				return nil, core.NewDesignError(spec.Column, fmt.Sprintf("metadata for sample %q has no such column", r.ID))
			}
			code, ok := spec.Index(v)
			if !ok {
				return nil, core.NewDesignError(spec.Column, fmt.Sprintf("sample %q has value %q outside the fixed levels", r.ID, v))
			}
			codes[i] = code
		}
		t.byName[spec.Column] = len(t.factors)
		t.factors = append(t.factors, &Factor{Name: spec.Column, Levels: spec.Levels, codes: codes})
	}
	return t, nil
}
