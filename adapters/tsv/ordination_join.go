package tsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
)

// WriteJoinedOrdination writes the plot-ready table the external plotting
// toolchain consumes: one row per sample present in both the ordination and
// the attribute table, with the sample's factor levels appended to its
// coordinates. Axis headers carry the loading percentage when provided
// (e.g. "axis1_38.6pct"). Samples without metadata are visualization-only
// drops here, never part of the statistical core.
func WriteJoinedOrdination(w io.Writer, o *Ordination, attrs *sample.Table, loadings []AxisLoading) error {
	bw := bufio.NewWriter(w)

	byAxis := make(map[int]float64, len(loadings))
	for _, l := range loadings {
		byAxis[l.Axis] = l.Percent
	}

	if _, err := bw.WriteString("group"); err != nil {
		return err
	}
	for i, name := range o.AxisNames {
		h := name
		if pct, ok := byAxis[i+1]; ok {
			h = fmt.Sprintf("%s_%.1fpct", name, pct)
		}
		if _, err := bw.WriteString("\t" + h); err != nil {
			return err
		}
	}
	cols := attrs.Columns()
	for _, c := range cols {
		if _, err := bw.WriteString("\t" + c); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	pos := make(map[string]int, attrs.Len())
	for i, l := range attrs.Labels() {
		pos[string(l)] = i
	}
	for i, label := range o.Labels {
		row, ok := pos[string(label)]
		if !ok {
			continue
		}
		if _, err := bw.WriteString(string(label)); err != nil {
			return err
		}
		for _, v := range o.Coords[i] {
			if _, err := bw.WriteString("\t" + strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
				return err
			}
		}
		for _, c := range cols {
			f, err := attrs.Factor(c)
			if err != nil {
				return err
			}
			if _, err := bw.WriteString("\t" + f.Level(row)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteJoinedOrdinationFile writes the plot-ready table to disk.
func WriteJoinedOrdinationFile(path string, o *Ordination, attrs *sample.Table, loadings []AxisLoading) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ordination table: %w", err)
	}
	if err := WriteJoinedOrdination(f, o, attrs, loadings); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
