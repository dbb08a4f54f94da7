// Package dist holds the pairwise-dissimilarity matrix type shared by the
// ingestion adapters and the variance-partitioning engine.
package dist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

// symmetry slack for matrices assembled from parsed text
const symTol = 1e-12

// Matrix is an N×N symmetric, zero-diagonal matrix of non-negative
// dissimilarities between N samples. The label at index i names row/column i.
// Read-only after construction.
type Matrix struct {
	labels []core.SampleLabel
	index  map[core.SampleLabel]int
	d      *mat.SymDense
}

// New builds a Matrix from a full square slice-of-slices, validating symmetry,
// a zero diagonal, non-negative entries and unique labels.
func New(labels []core.SampleLabel, data [][]float64) (*Matrix, error) {
	n := len(labels)
	if len(data) != n {
		return nil, fmt.Errorf("%w: %d labels but %d rows", core.ErrDimension, n, len(data))
	}
	index, err := buildIndex(labels)
	if err != nil {
		return nil, err
	}
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(data[i]) != n {
			return nil, fmt.Errorf("%w: row %q has %d columns, want %d", core.ErrDimension, labels[i], len(data[i]), n)
		}
		for j := i; j < n; j++ {
			v := data[i][j]
			if i == j {
				if v != 0 {
					return nil, fmt.Errorf("%w: nonzero diagonal at %q", core.ErrFormat, labels[i])
				}
				continue
			}
			if math.Abs(v-data[j][i]) > symTol {
				return nil, fmt.Errorf("%w: asymmetric at (%q,%q): %g vs %g", core.ErrFormat, labels[i], labels[j], v, data[j][i])
			}
			if v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: invalid distance %g at (%q,%q)", core.ErrFormat, v, labels[i], labels[j])
			}
			d.SetSym(i, j, v)
		}
	}
	return &Matrix{labels: labels, index: index, d: d}, nil
}

// FromLowerTriangle builds a Matrix from strictly lower-triangular rows:
// rows[i] holds the i entries d(i, 0..i-1). Reflecting the triangle is the
// M + Mᵀ construction, valid because the diagonal is zero and each off-diagonal
// cell is populated in exactly one triangle.
func FromLowerTriangle(labels []core.SampleLabel, rows [][]float64) (*Matrix, error) {
	n := len(labels)
	if len(rows) != n {
		return nil, fmt.Errorf("%w: %d labels but %d triangular rows", core.ErrDimension, n, len(rows))
	}
	index, err := buildIndex(labels)
	if err != nil {
		return nil, err
	}
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(rows[i]) != i {
			return nil, fmt.Errorf("%w: triangular row %q has %d fields, want %d", core.ErrFormat, labels[i], len(rows[i]), i)
		}
		for j, v := range rows[i] {
			if v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: invalid distance %g at (%q,%q)", core.ErrFormat, v, labels[i], labels[j])
			}
			d.SetSym(i, j, v)
		}
	}
	return &Matrix{labels: labels, index: index, d: d}, nil
}

func buildIndex(labels []core.SampleLabel) (map[core.SampleLabel]int, error) {
	index := make(map[core.SampleLabel]int, len(labels))
	for i, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("%w: empty sample label at row %d", core.ErrFormat, i)
		}
		if _, dup := index[l]; dup {
			return nil, fmt.Errorf("%w: duplicate sample label %q", core.ErrFormat, l)
		}
		index[l] = i
	}
	return index, nil
}

// Len returns the number of samples.
func (m *Matrix) Len() int { return len(m.labels) }

// Labels returns a copy of the ordered sample labels.
func (m *Matrix) Labels() []core.SampleLabel {
	out := make([]core.SampleLabel, len(m.labels))
	copy(out, m.labels)
	return out
}

// Label returns the label at index i.
func (m *Matrix) Label(i int) core.SampleLabel { return m.labels[i] }

// Index returns the position of a label, if present.
func (m *Matrix) Index(label core.SampleLabel) (int, bool) {
	i, ok := m.index[label]
	return i, ok
}

// At returns the dissimilarity between samples i and j.
func (m *Matrix) At(i, j int) float64 { return m.d.At(i, j) }

// Between returns the dissimilarity between two labelled samples.
func (m *Matrix) Between(a, b core.SampleLabel) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: sample %q", core.ErrNotFound, a)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: sample %q", core.ErrNotFound, b)
	}
	return m.d.At(i, j), nil
}

// Subset extracts the submatrix over the given labels, in the given order.
// Unknown labels are an error rather than a silent drop.
func (m *Matrix) Subset(labels []core.SampleLabel) (*Matrix, error) {
	idx := make([]int, len(labels))
	for k, l := range labels {
		i, ok := m.index[l]
		if !ok {
			return nil, fmt.Errorf("%w: sample %q", core.ErrNotFound, l)
		}
		idx[k] = i
	}
	index, err := buildIndex(labels)
	if err != nil {
		return nil, err
	}
	sub := mat.NewSymDense(len(labels), nil)
	for a := range idx {
		for b := a + 1; b < len(idx); b++ {
			sub.SetSym(a, b, m.d.At(idx[a], idx[b]))
		}
	}
	out := make([]core.SampleLabel, len(labels))
	copy(out, labels)
	return &Matrix{labels: out, index: index, d: sub}, nil
}

// Sym exposes the underlying symmetric matrix for numeric consumers.
// Callers must treat it as read-only.
func (m *Matrix) Sym() *mat.SymDense { return m.d }
