package app

import (
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/stats/permanova"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/report"
)

// SubsetResult pairs one analysis with the subset it covered (a day, a
// source, or "" for the whole dataset).
type SubsetResult struct {
	Subset string
	Result *permanova.Result
}

// Aggregate flattens analyses into a row-per-(subset, effect) table. Entry
// order and each result's effect order are preserved; downstream reporting
// reads rows by position. Residual and total rows stay in the per-analysis
// results and are not flattened.
func Aggregate(subsetColumn string, entries []SubsetResult) *report.Table {
	t := &report.Table{SubsetColumn: subsetColumn}
	for _, e := range entries {
		for _, eff := range e.Result.Effects {
			t.Records = append(t.Records, report.Record{
				Subset:   e.Subset,
				Effect:   eff.Name,
				Df:       eff.Df,
				SumSq:    eff.SumSq,
				RSquared: eff.R2,
				P:        eff.P,
			})
		}
	}
	return t
}
