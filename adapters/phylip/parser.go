// Package phylip reads and writes the lower-triangular distance-matrix text
// format produced by the sequence-processing pipeline: line 1 holds the
// sample count N, and data line k (1-indexed) holds a sample label followed
// by exactly k-1 tab-separated distances, the strict lower triangle.
package phylip

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
)

// generous line buffer: one row of a few thousand samples
const maxLineBytes = 1 << 22

// Parse reads a lower-triangular distance file into a symmetric matrix.
// name is used in error messages only.
func Parse(r io.Reader, name string) (*dist.Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return nil, core.NewFormatError(name, 1, "empty input, expected a sample count")
	}
	countField := strings.TrimSpace(sc.Text())
	n, err := strconv.Atoi(countField)
	if err != nil || n < 1 {
		return nil, core.NewFormatError(name, 1, fmt.Sprintf("bad sample count %q", countField))
	}

	labels := make([]core.SampleLabel, 0, n)
	rows := make([][]float64, 0, n)
	line := 1
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if len(labels) == n {
			return nil, core.NewFormatError(name, line, fmt.Sprintf("more than the declared %d data lines", n))
		}
		label, payload := splitLabel(text)
		if label == "" {
			return nil, core.NewFormatError(name, line, "missing sample label")
		}
		want := len(labels)
		fields := splitFields(payload)
		if len(fields) != want {
			return nil, core.NewFormatError(name, line,
				fmt.Sprintf("sample %q has %d distances, want %d", label, len(fields), want))
		}
		row := make([]float64, want)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, core.NewFormatError(name, line,
					fmt.Sprintf("sample %q: bad distance %q", label, f))
			}
			row[i] = v
		}
		labels = append(labels, core.SampleLabel(label))
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(labels) != n {
		return nil, core.NewFormatError(name, line,
			fmt.Sprintf("declared %d samples but found %d data lines", n, len(labels)))
	}

	m, err := dist.FromLowerTriangle(labels, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// ParseFile reads a lower-triangular distance file from disk.
func ParseFile(path string) (*dist.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening distance matrix: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// splitLabel separates the sample label from the numeric payload. The label
// is everything before the first tab; some upstream tools pad with spaces
// instead, so a run of spaces also terminates the label.
func splitLabel(line string) (label, payload string) {
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		return strings.TrimSpace(line[:i]), line[i+1:]
	}
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return strings.TrimSpace(line[:i]), line[i+1:]
	}
	return strings.TrimSpace(line), ""
}

func splitFields(payload string) []string {
	return strings.FieldsFunc(payload, func(r rune) bool {
		return r == '\t' || r == ' '
	})
}
