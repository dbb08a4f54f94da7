package permanova

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/design"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
)

const (
	// relative singular-value cutoff for rank decisions
	rankTol = 1e-9

	// below this fraction of n, total sum-of-squares counts as no variance
	varianceTol = 1e-12

	// relative slack when comparing permuted to observed pseudo-F
	fTieTol = 1e-12

	ctxCheckEvery = 512
)

// partition holds everything precomputed once per analysis: the Gower-centered
// Gram matrix and, per term, the cumulative projection (hat) matrix. Each
// permutation then costs one O(n²) pass per term over G.
type partition struct {
	n       int
	terms   []design.Term
	g       *mat.SymDense
	totalSS float64
	hats    []*mat.Dense
	dfs     []int
	residDf int
}

func newPartition(m *dist.Matrix, attrs *sample.Table, terms []design.Term) (*partition, error) {
	n := m.Len()
	if err := checkSpread(m); err != nil {
		return nil, err
	}
	g := gowerCenter(m)

	totalSS := 0.0
	for i := 0; i < n; i++ {
		totalSS += g.At(i, i)
	}
	if totalSS <= varianceTol*float64(n) {
		return nil, core.NewDesignError("(total)", "distances carry no variance, nothing to partition")
	}

	p := &partition{n: n, terms: terms, g: g, totalSS: totalSS}

	// cumulative model matrix, intercept first
	cols := [][]float64{onesColumn(n)}
	prevRank := 1
	for _, t := range terms {
		tc, err := termColumns(attrs, t)
		if err != nil {
			return nil, err
		}
		cols = append(cols, tc...)
		hat, rank, err := projection(n, cols)
		if err != nil {
			return nil, err
		}
		df := rank - prevRank
		if df <= 0 {
			return nil, core.NewDesignError(t.Name, "adds zero degrees of freedom on this subset")
		}
		p.hats = append(p.hats, hat)
		p.dfs = append(p.dfs, df)
		prevRank = rank
	}
	p.residDf = n - prevRank
	if p.residDf <= 0 {
		return nil, core.NewDesignError(terms[len(terms)-1].Name, "zero residual degrees of freedom, design is overparameterized")
	}
	return p, nil
}

// checkSpread rejects degenerate matrices where every pairwise distance is
// the same value: every permutation then yields the identical statistic and a
// p-value would be meaningless rather than NaN-prone.
func checkSpread(m *dist.Matrix) error {
	n := m.Len()
	if n < 2 {
		return core.NewDesignError("(total)", "need at least two samples")
	}
	first := m.At(1, 0)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if math.Abs(m.At(i, j)-first) > varianceTol {
				return nil
			}
		}
	}
	return core.NewDesignError("(total)", "all pairwise distances are identical")
}

// gowerCenter turns distances into the centered inner-product matrix
// G = (I - J/n)(-½ D²)(I - J/n). Its trace is the total sum-of-squares.
func gowerCenter(m *dist.Matrix) *mat.SymDense {
	n := m.Len()
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := m.At(i, j)
			a.SetSym(i, j, -0.5*d*d)
		}
	}
	rowMean := make([]float64, n)
	grand := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rowMean[i] += a.At(i, j)
		}
		rowMean[i] /= float64(n)
		grand += rowMean[i]
	}
	grand /= float64(n)

	g := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			g.SetSym(i, j, a.At(i, j)-rowMean[i]-rowMean[j]+grand)
		}
	}
	return g
}

func onesColumn(n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = 1
	}
	return c
}

// termColumns builds indicator columns for one term: one column per distinct
// observed combination of its factors' level codes, ordered lexicographically
// by code tuple. The fixed level sets make that ordering reproducible across
// subsets; the column span (hence SS and rank) does not depend on the coding.
func termColumns(attrs *sample.Table, t design.Term) ([][]float64, error) {
	n := attrs.Len()
	factors := make([]*sample.Factor, len(t.Factors))
	for i, name := range t.Factors {
		f, err := attrs.Factor(name)
		if err != nil {
			return nil, err
		}
		factors[i] = f
	}

	type combo struct {
		key   string
		codes []int
	}
	byKey := make(map[string]int)
	var combos []combo
	rows := make([]int, n)
	for i := 0; i < n; i++ {
		codes := make([]int, len(factors))
		for k, f := range factors {
			codes[k] = f.Code(i)
		}
		key := fmt.Sprint(codes)
		ci, ok := byKey[key]
		if !ok {
			ci = len(combos)
			byKey[key] = ci
			combos = append(combos, combo{key: key, codes: codes})
		}
		rows[i] = ci
	}
	if len(combos) < 2 {
		return nil, core.NewDesignError(t.Name, "has a single level on this subset")
	}

	order := make([]int, len(combos))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ca, cb := combos[order[a]].codes, combos[order[b]].codes
		for k := range ca {
			if ca[k] != cb[k] {
				return ca[k] < cb[k]
			}
		}
		return false
	})
	rankOf := make([]int, len(combos))
	for pos, ci := range order {
		rankOf[ci] = pos
	}

	cols := make([][]float64, len(combos))
	for c := range cols {
		cols[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		cols[rankOf[rows[i]]][i] = 1
	}
	return cols, nil
}

// projection computes the orthogonal projector onto the column space of the
// cumulative model matrix, with its rank, via thin SVD.
func projection(n int, cols [][]float64) (*mat.Dense, int, error) {
	p := len(cols)
	x := mat.NewDense(n, p, nil)
	for j, c := range cols {
		x.SetCol(j, c)
	}
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("%w: SVD of the model matrix failed", core.ErrDesign)
	}
	sv := svd.Values(nil)
	rank := 0
	for _, s := range sv {
		if s > sv[0]*rankTol {
			rank++
		}
	}
	if rank == 0 {
		return nil, 0, fmt.Errorf("%w: model matrix has rank zero", core.ErrDesign)
	}
	var u mat.Dense
	svd.UTo(&u)
	ur := u.Slice(0, n, 0, rank)
	hat := mat.NewDense(n, n, nil)
	hat.Mul(ur, ur.T())
	return hat, rank, nil
}

// modelSS is tr(H · P G Pᵀ): the model sum-of-squares for the cumulative hat
// matrix under a relabelling of the samples.
func (p *partition) modelSS(hat *mat.Dense, perm []int) float64 {
	s := 0.0
	for i := 0; i < p.n; i++ {
		pi := perm[i]
		for k := 0; k < p.n; k++ {
			s += hat.At(i, k) * p.g.At(pi, perm[k])
		}
	}
	return s
}

// fStats computes per-term sequential sums-of-squares and pseudo-F statistics
// under one relabelling.
func (p *partition) fStats(perm []int, ss, fs []float64) {
	prev := 0.0
	var cum float64
	for j, hat := range p.hats {
		cum = p.modelSS(hat, perm)
		s := cum - prev
		if s < 0 {
			s = 0
		}
		ss[j] = s
		prev = cum
	}
	resid := p.totalSS - cum
	if resid < 0 {
		resid = 0
	}
	residMS := resid / float64(p.residDf)
	for j := range p.hats {
		fs[j] = (ss[j] / float64(p.dfs[j])) / residMS
	}
}

// run evaluates the observed partition and the permutation null.
func (p *partition) run(ctx context.Context, gen *permuter, opts Options) (*Result, error) {
	identity := make([]int, p.n)
	for i := range identity {
		identity[i] = i
	}
	obsSS := make([]float64, len(p.hats))
	obsF := make([]float64, len(p.hats))
	p.fStats(identity, obsSS, obsF)

	exceed := make([]int, len(p.hats))
	null := make([][]float64, len(p.hats))
	for j := range null {
		null[j] = make([]float64, 0, gen.count)
	}

	// permuted sums accumulate in a different order than the observed
	// ones, so equality of equivalent relabellings is only up to rounding
	thresh := make([]float64, len(obsF))
	for j, f := range obsF {
		thresh[j] = f - fTieTol*(1+math.Abs(f))
	}

	permSS := make([]float64, len(p.hats))
	permF := make([]float64, len(p.hats))
	draws := 0
	for {
		perm, ok := gen.next()
		if !ok {
			break
		}
		if draws%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p.fStats(perm, permSS, permF)
		for j := range permF {
			if permF[j] >= thresh[j] {
				exceed[j]++
			}
			null[j] = append(null[j], permF[j])
		}
		draws++
	}

	res := &Result{
		N:            p.n,
		Permutations: draws,
		Exhaustive:   gen.exhaustive,
		Effects:      make([]Effect, len(p.hats)),
	}
	residSS := p.totalSS - floats.Sum(obsSS)
	if residSS < 0 {
		residSS = 0
	}
	for j, t := range p.terms {
		var pval float64
		if gen.exhaustive {
			// the identity ordering is among the enumerated draws, so
			// the numerator is never zero
			pval = float64(exceed[j]) / float64(draws)
		} else {
			pval = float64(1+exceed[j]) / float64(1+draws)
		}
		res.Effects[j] = Effect{
			Name:   t.Name,
			Df:     p.dfs[j],
			SumSq:  obsSS[j],
			MeanSq: obsSS[j] / float64(p.dfs[j]),
			F:      obsF[j],
			R2:     obsSS[j] / p.totalSS,
			P:      pval,
			Null:   summarizeNull(null[j]),
		}
	}
	res.Residual = Row{Df: p.residDf, SumSq: residSS, R2: residSS / p.totalSS}
	res.Total = Row{Df: p.n - 1, SumSq: p.totalSS, R2: 1}
	return res, nil
}
