package permanova

import (
	"context"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/design"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/internal/testkit"
)

func TestAnalyze_BalancedTwoGroup(t *testing.T) {
	// within-group distance 0.1, between-group 0.9: nearly all variance
	// sits between the groups, and with n=4 the engine must enumerate the
	// 4! orderings exactly instead of resampling
	m := testkit.FourSampleMatrix()
	attrs := testkit.FourSampleTable()
	f := design.MustParse("group")

	res, err := Analyze(context.Background(), m, attrs, f, Options{Seed: 7})
	require.NoError(t, err)

	require.Len(t, res.Effects, 1)
	eff := res.Effects[0]
	assert.Equal(t, "group", eff.Name)
	assert.Equal(t, 1, eff.Df)
	assert.Greater(t, eff.R2, 0.9)

	assert.True(t, res.Exhaustive)
	assert.Equal(t, 24, res.Permutations)
	// only the observed pairing reaches the observed F; 8 of the 24
	// orderings reproduce that pairing
	assert.InDelta(t, 8.0/24.0, eff.P, 1e-12)
}

func TestAnalyze_RSquaredSumsToOne(t *testing.T) {
	m, records := testkit.SyntheticStudy(3, []string{"-1", "0", "1"})
	attrs := joinedStudy(t, m, records)
	f := design.MustParse("source*day")

	res, err := Analyze(context.Background(), m, attrs, f, Options{Permutations: 299, Seed: 11})
	require.NoError(t, err)

	sum := res.Residual.R2
	for _, eff := range res.Effects {
		sum += eff.R2
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 1.0, res.Total.R2, 0)
	assert.Equal(t, m.Len()-1, res.Total.Df)
}

func TestAnalyze_PValueBounds(t *testing.T) {
	m, records := testkit.SyntheticStudy(5, []string{"-1", "0", "1"})
	attrs := joinedStudy(t, m, records)
	f := design.MustParse("source+day")

	perms := 199
	res, err := Analyze(context.Background(), m, attrs, f, Options{Permutations: perms, Seed: 2})
	require.NoError(t, err)
	require.False(t, res.Exhaustive)

	lower := 1.0 / float64(perms+1)
	for _, eff := range res.Effects {
		assert.GreaterOrEqual(t, eff.P, lower, "effect %s", eff.Name)
		assert.LessOrEqual(t, eff.P, 1.0, "effect %s", eff.Name)
		assert.False(t, math.IsNaN(eff.P), "effect %s", eff.Name)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	m, records := testkit.SyntheticStudy(9, []string{"-1", "0"})
	attrs := joinedStudy(t, m, records)
	f := design.MustParse("source*day")
	opts := Options{Permutations: 499, Seed: 42}

	a, err := Analyze(context.Background(), m, attrs, f, opts)
	require.NoError(t, err)
	b, err := Analyze(context.Background(), m, attrs, f, opts)
	require.NoError(t, err)

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same inputs and seed produced different results:\n%+v\n%+v", a, b)
	}
}

func TestAnalyze_SeedChangesNull(t *testing.T) {
	m, records := testkit.SyntheticStudy(9, []string{"-1", "0"})
	attrs := joinedStudy(t, m, records)
	f := design.MustParse("source")

	a, err := Analyze(context.Background(), m, attrs, f, Options{Permutations: 499, Seed: 1})
	require.NoError(t, err)
	b, err := Analyze(context.Background(), m, attrs, f, Options{Permutations: 499, Seed: 2})
	require.NoError(t, err)

	// observed partition is seed-independent
	assert.Equal(t, a.Effects[0].R2, b.Effects[0].R2)
	assert.Equal(t, a.Effects[0].F, b.Effects[0].F)
	// the null draws are not
	assert.NotEqual(t, a.Effects[0].Null, b.Effects[0].Null)
}

func TestAnalyze_ZeroVariance(t *testing.T) {
	m := constantMatrix(t)
	attrs := testkit.FourSampleTable()
	f := design.MustParse("group")

	_, err := Analyze(context.Background(), m, attrs, f, Options{Seed: 1})
	require.Error(t, err)
	assert.True(t, core.IsDesignError(err), "got %v", err)
}

func TestAnalyze_SingleLevelTerm(t *testing.T) {
	m, records := testkit.SyntheticStudy(4, []string{"-1"})
	for i := range records {
		records[i].Values["experiment"] = "1"
	}
	attrs := joinedStudy(t, m, records)
	f := design.MustParse("experiment")

	_, err := Analyze(context.Background(), m, attrs, f, Options{Seed: 1})
	require.Error(t, err)
	assert.True(t, core.IsDesignError(err), "got %v", err)
	assert.Contains(t, err.Error(), "experiment")
}

func TestAnalyze_NestedWithoutReplication(t *testing.T) {
	// one cage per source: the source:cage term can add nothing beyond
	// source and must be reported untestable, not silently zero
	m, records := testkit.SyntheticStudy(8, []string{"-1", "0"})
	for i := range records {
		records[i].Values["cage"] = records[i].Values["source"] + "_only"
	}
	attrs := joinedStudy(t, m, records)
	f := design.MustParse("source/cage")

	_, err := Analyze(context.Background(), m, attrs, f, Options{Seed: 1})
	require.Error(t, err)
	assert.True(t, core.IsDesignError(err), "got %v", err)
	assert.Contains(t, err.Error(), "source:cage")
}

func TestAnalyze_DimensionMismatch(t *testing.T) {
	m := testkit.FourSampleMatrix()
	attrs := testkit.FourSampleTable()
	sub, err := m.Subset(m.Labels()[:3])
	require.NoError(t, err)

	_, err = Analyze(context.Background(), sub, attrs, design.MustParse("group"), Options{Seed: 1})
	require.Error(t, err)
	assert.True(t, core.IsDimensionError(err), "got %v", err)
}

func TestAnalyze_LabelOrderMismatch(t *testing.T) {
	m := testkit.FourSampleMatrix()
	attrs := testkit.FourSampleTable()
	labels := m.Labels()
	labels[0], labels[1] = labels[1], labels[0]
	shuffled, err := m.Subset(labels)
	require.NoError(t, err)

	_, err = Analyze(context.Background(), shuffled, attrs, design.MustParse("group"), Options{Seed: 1})
	require.Error(t, err)
	assert.True(t, core.IsDimensionError(err), "got %v", err)
}

func TestAnalyze_StratifiedPValue(t *testing.T) {
	m, records := testkit.SyntheticStudy(6, []string{"-1", "0", "1"})
	attrs := joinedStudy(t, m, records)
	f := design.MustParse("source")
	strata, err := attrs.Strata("day")
	require.NoError(t, err)

	res, err := Analyze(context.Background(), m, attrs, f, Options{Permutations: 199, Seed: 3, Strata: strata})
	require.NoError(t, err)
	for _, eff := range res.Effects {
		assert.False(t, math.IsNaN(eff.P))
	}
}

// joinedStudy joins synthetic study records against the matrix labels with
// level sets derived from the full record list, the same discipline the app
// layer applies.
func joinedStudy(t *testing.T, m *dist.Matrix, records []sample.Record) *sample.Table {
	t.Helper()
	specs := sample.LevelSpecs{}
	for _, col := range []string{"source", "cage", "unique_cage", "experiment", "run", "day", "mouse_id"} {
		seen := make(map[string]struct{})
		var levels []string
		for _, r := range records {
			v := r.Values[col]
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				levels = append(levels, v)
			}
		}
		sort.Strings(levels)
		specs = append(specs, sample.LevelSpec{Column: col, Levels: levels})
	}
	attrs, err := sample.Join(m.Labels(), records, specs, sample.JoinOptions{})
	require.NoError(t, err)
	return attrs
}

// constantMatrix has every pairwise distance equal: no structure to test.
func constantMatrix(t *testing.T) *dist.Matrix {
	t.Helper()
	m, err := dist.FromLowerTriangle(testkit.FourSampleLabels, [][]float64{
		{},
		{0.5},
		{0.5, 0.5},
		{0.5, 0.5, 0.5},
	})
	require.NoError(t, err)
	return m
}
