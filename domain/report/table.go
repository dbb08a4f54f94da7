// Package report holds the flattened result tables persisted for the
// manuscript: one row per (subset, effect), ordered the way the caller
// declares. Pure data reshaping lives here; no statistics.
package report

// Record is one effect row of an aggregated result table.
type Record struct {
	Subset   string
	Effect   string
	Df       int
	SumSq    float64
	RSquared float64
	P        float64
}

// Table is an ordered collection of effect records. SubsetColumn names the
// discriminator column ("day", "source"); empty when a single analysis is
// reported. Row order is load-bearing: downstream reporting reads by
// position.
type Table struct {
	SubsetColumn string
	Records      []Record
}

// Subsets returns the distinct subset labels in first-appearance order.
func (t *Table) Subsets() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range t.Records {
		if _, ok := seen[r.Subset]; !ok {
			seen[r.Subset] = struct{}{}
			out = append(out, r.Subset)
		}
	}
	return out
}

// ForSubset returns the records of one subset, preserving order.
func (t *Table) ForSubset(subset string) []Record {
	var out []Record
	for _, r := range t.Records {
		if r.Subset == subset {
			out = append(out, r)
		}
	}
	return out
}
