package tsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

// Ordination is a PCoA embedding consumed for visualization: one coordinate
// row per sample, axes in file order. Produced upstream, never computed here.
type Ordination struct {
	Labels    []core.SampleLabel
	AxisNames []string
	Coords    [][]float64 // Coords[i][k] is sample i on axis k
}

// Row returns the coordinates of a labelled sample.
func (o *Ordination) Row(label core.SampleLabel) ([]float64, bool) {
	for i, l := range o.Labels {
		if l == label {
			return o.Coords[i], true
		}
	}
	return nil, false
}

// AxisLoading is the fraction of variance one ordination axis carries,
// as a percentage.
type AxisLoading struct {
	Axis    int
	Percent float64
}

// ReadOrdination parses a PCoA axes table: a `group` label column followed by
// numeric axis columns.
func ReadOrdination(r io.Reader, name string) (*Ordination, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, core.NewFormatError(name, 1, fmt.Sprintf("reading header: %v", err))
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "group" {
		return nil, core.NewFormatError(name, 1, "expected a `group` column followed by axis columns")
	}

	o := &Ordination{AxisNames: make([]string, len(header)-1)}
	for i, h := range header[1:] {
		o.AxisNames[i] = strings.TrimSpace(h)
	}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, core.NewFormatError(name, line, err.Error())
		}
		if len(row) != len(header) {
			return nil, core.NewFormatError(name, line,
				fmt.Sprintf("%d fields, header has %d", len(row), len(header)))
		}
		coords := make([]float64, len(row)-1)
		for i, f := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, core.NewFormatError(name, line, fmt.Sprintf("bad coordinate %q", f))
			}
			coords[i] = v
		}
		o.Labels = append(o.Labels, core.SampleLabel(strings.TrimSpace(row[0])))
		o.Coords = append(o.Coords, coords)
	}
	return o, nil
}

// ReadOrdinationFile parses a PCoA axes table from disk.
func ReadOrdinationFile(path string) (*Ordination, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ordination: %w", err)
	}
	defer f.Close()
	return ReadOrdination(f, path)
}

// ReadLoadings parses an axis-loadings table: `axis` integer column and
// `loading` percentage column.
func ReadLoadings(r io.Reader, name string) ([]AxisLoading, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, core.NewFormatError(name, 1, fmt.Sprintf("reading header: %v", err))
	}
	axisIdx, loadIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "axis":
			axisIdx = i
		case "loading":
			loadIdx = i
		}
	}
	if axisIdx < 0 || loadIdx < 0 {
		return nil, core.NewFormatError(name, 1, "expected `axis` and `loading` columns")
	}

	var out []AxisLoading
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, core.NewFormatError(name, line, err.Error())
		}
		axis, err := strconv.Atoi(strings.TrimSpace(row[axisIdx]))
		if err != nil {
			return nil, core.NewFormatError(name, line, fmt.Sprintf("bad axis %q", row[axisIdx]))
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(row[loadIdx]), 64)
		if err != nil {
			return nil, core.NewFormatError(name, line, fmt.Sprintf("bad loading %q", row[loadIdx]))
		}
		out = append(out, AxisLoading{Axis: axis, Percent: pct})
	}
	return out, nil
}

// ReadLoadingsFile parses an axis-loadings table from disk.
func ReadLoadingsFile(path string) ([]AxisLoading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening loadings: %w", err)
	}
	defer f.Close()
	return ReadLoadings(f, path)
}
