package tsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/report"
)

// WriteTable serializes an aggregated result table: columns `effects`,
// `r_sq`, `p`, plus the subset discriminator column when the table carries
// one. Row order is preserved; float formatting is the shortest
// representation that round-trips, so re-runs diff cleanly.
func WriteTable(w io.Writer, t *report.Table) error {
	bw := bufio.NewWriter(w)

	header := "effects\tr_sq\tp"
	if t.SubsetColumn != "" {
		header += "\t" + t.SubsetColumn
	}
	if _, err := fmt.Fprintln(bw, header); err != nil {
		return err
	}
	for _, r := range t.Records {
		line := r.Effect + "\t" + formatFloat(r.RSquared) + "\t" + formatFloat(r.P)
		if t.SubsetColumn != "" {
			line += "\t" + r.Subset
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTableFile serializes an aggregated result table to disk.
func WriteTableFile(path string, t *report.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating result table: %w", err)
	}
	if err := WriteTable(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
