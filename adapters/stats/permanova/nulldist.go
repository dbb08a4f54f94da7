package permanova

import (
	"github.com/montanaflynn/stats"
)

// summarizeNull condenses a permutation null distribution of pseudo-F values
// for reporting alongside the observed statistic.
func summarizeNull(fs []float64) NullSummary {
	if len(fs) == 0 {
		return NullSummary{}
	}
	mean, _ := stats.Mean(fs)
	sd, _ := stats.StandardDeviation(fs)
	min, _ := stats.Min(fs)
	max, _ := stats.Max(fs)
	p95, _ := stats.Percentile(fs, 95)
	p99, _ := stats.Percentile(fs, 99)
	return NullSummary{
		Mean:   mean,
		StdDev: sd,
		Min:    min,
		Max:    max,
		P95:    p95,
		P99:    p99,
	}
}
