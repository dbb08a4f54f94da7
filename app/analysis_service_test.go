package app

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/rng"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/stats/permanova"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/design"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/internal/testkit"
)

func studyFixture(t *testing.T, days []string) (*dist.Matrix, *sample.Table) {
	t.Helper()
	m, records := testkit.SyntheticStudy(11, days)
	specs, err := StudyLevelSpecs(records)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := sample.Join(m.Labels(), records, specs, sample.JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return m, attrs
}

func TestRunSweep_PerDay(t *testing.T) {
	m, attrs := studyFixture(t, []string{"0", "1", "2"})
	svc := NewAnalysisService(rng.NewDeterministic(), nil)

	out, err := svc.RunSweep(context.Background(), SweepRequest{
		Matrix:       m,
		Attrs:        attrs,
		Formula:      design.MustParse(ColSource),
		SubsetColumn: ColDay,
		Subsets:      []string{"0", "1", "2"},
		Permutations: 99,
		Seed:         7,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(out.Entries))
	}
	for i, day := range []string{"0", "1", "2"} {
		e := out.Entries[i]
		if e.Subset != day {
			t.Errorf("entry %d subset = %q, want %q", i, e.Subset, day)
		}
		if e.Result.N != 4 {
			t.Errorf("day %s: N = %d, want 4", day, e.Result.N)
		}
		eff, ok := e.Result.Effect(ColSource)
		if !ok {
			t.Fatalf("day %s: no source effect", day)
		}
		if eff.R2 < 0.5 {
			t.Errorf("day %s: source R² = %v, want a dominant source effect", day, eff.R2)
		}
	}

	if out.Table.SubsetColumn != ColDay {
		t.Errorf("table subset column = %q, want %q", out.Table.SubsetColumn, ColDay)
	}
	if len(out.Table.Records) != 3 {
		t.Fatalf("table rows = %d, want 3", len(out.Table.Records))
	}
	if err := out.Manifest.Validate(); err != nil {
		t.Errorf("manifest invalid: %v", err)
	}
}

func TestRunSweep_Deterministic(t *testing.T) {
	m, attrs := studyFixture(t, []string{"0", "1"})
	svc := NewAnalysisService(rng.NewDeterministic(), nil)
	req := SweepRequest{
		Matrix:       m,
		Attrs:        attrs,
		Formula:      design.MustParse(ColSource),
		SubsetColumn: ColDay,
		Subsets:      []string{"0", "1"},
		Permutations: 199,
		Seed:         42,
	}

	first, err := svc.RunSweep(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.RunSweep(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Table, second.Table) {
		t.Error("same seed, different tables")
	}
	// fresh run IDs must not disturb the fingerprint
	if first.Manifest.RunID == second.Manifest.RunID {
		t.Error("run IDs should be unique per sweep")
	}
	if first.Manifest.Fingerprint != second.Manifest.Fingerprint {
		t.Error("same parameters, different fingerprints")
	}
}

func TestRunSweep_SeedChangesResults(t *testing.T) {
	m, attrs := studyFixture(t, []string{"0"})
	svc := NewAnalysisService(rng.NewDeterministic(), nil)
	// 20 < 4! keeps the run sampled, so the seed matters
	req := SweepRequest{
		Matrix:       m,
		Attrs:        attrs,
		Formula:      design.MustParse(ColSource),
		SubsetColumn: ColDay,
		Subsets:      []string{"0"},
		Permutations: 20,
		Seed:         1,
	}
	first, err := svc.RunSweep(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	req.Seed = 2
	second, err := svc.RunSweep(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := first.Entries[0].Result.Effect(ColSource)
	b, _ := second.Entries[0].Result.Effect(ColSource)
	if a.Null == b.Null {
		t.Error("different seeds should draw different null distributions")
	}
}

func TestRunSweep_EmptySubset(t *testing.T) {
	m, attrs := studyFixture(t, []string{"0"})
	svc := NewAnalysisService(rng.NewDeterministic(), nil)

	_, err := svc.RunSweep(context.Background(), SweepRequest{
		Matrix:       m,
		Attrs:        attrs,
		Formula:      design.MustParse(ColSource),
		SubsetColumn: ColDay,
		Subsets:      []string{"9"},
		Permutations: 99,
		Seed:         1,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("want not-found error for empty subset, got %v", err)
	}
}

func TestRunSweep_NoSubsets(t *testing.T) {
	m, attrs := studyFixture(t, []string{"0"})
	svc := NewAnalysisService(rng.NewDeterministic(), nil)
	_, err := svc.RunSweep(context.Background(), SweepRequest{
		Matrix:       m,
		Attrs:        attrs,
		Formula:      design.MustParse(ColSource),
		SubsetColumn: ColDay,
	})
	if err == nil {
		t.Fatal("want error for empty subset list")
	}
}

func TestAggregate_PreservesOrder(t *testing.T) {
	entries := []SubsetResult{
		{Subset: "0", Result: &permanova.Result{Effects: []permanova.Effect{
			{Name: "source", Df: 1, SumSq: 0.6, R2: 0.6, P: 0.01},
			{Name: "day", Df: 2, SumSq: 0.2, R2: 0.2, P: 0.2},
		}}},
		{Subset: "1", Result: &permanova.Result{Effects: []permanova.Effect{
			{Name: "source", Df: 1, SumSq: 0.5, R2: 0.5, P: 0.02},
		}}},
	}
	table := Aggregate("day", entries)

	if len(table.Records) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Records))
	}
	wantOrder := []struct{ subset, effect string }{
		{"0", "source"}, {"0", "day"}, {"1", "source"},
	}
	for i, w := range wantOrder {
		r := table.Records[i]
		if r.Subset != w.subset || r.Effect != w.effect {
			t.Errorf("row %d = (%s,%s), want (%s,%s)", i, r.Subset, r.Effect, w.subset, w.effect)
		}
	}
	if table.Records[0].RSquared != 0.6 || table.Records[0].P != 0.01 {
		t.Errorf("row 0 values not carried over: %+v", table.Records[0])
	}
}

func TestStudyLevelSpecs(t *testing.T) {
	_, records := testkit.SyntheticStudy(3, []string{"0", "1"})
	specs, err := StudyLevelSpecs(records)
	if err != nil {
		t.Fatal(err)
	}

	day, ok := specs.Get(ColDay)
	if !ok {
		t.Fatal("no day spec")
	}
	if !reflect.DeepEqual(day.Levels, DayLevels) {
		t.Errorf("day levels = %v, want the canonical sequence %v", day.Levels, DayLevels)
	}

	cage, ok := specs.Get(ColCage)
	if !ok {
		t.Fatal("no cage spec")
	}
	want := []string{"jackson_c1", "jackson_c2", "taconic_c1", "taconic_c2"}
	if !reflect.DeepEqual(cage.Levels, want) {
		t.Errorf("cage levels = %v, want %v", cage.Levels, want)
	}

	src, _ := specs.Get(ColSource)
	if !reflect.DeepEqual(src.Levels, []string{"jackson", "taconic"}) {
		t.Errorf("source levels = %v", src.Levels)
	}
}

func TestStudyLevelSpecs_MissingColumn(t *testing.T) {
	records := []sample.Record{{ID: "s1", Values: map[string]string{"day": "0"}}}
	if _, err := StudyLevelSpecs(records); !core.IsDesignError(err) {
		t.Fatalf("want design error, got %v", err)
	}
}
