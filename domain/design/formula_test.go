package design

import (
	"reflect"
	"testing"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

func termNames(f *Formula) []string {
	terms := f.Terms()
	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.Name
	}
	return names
}

func TestParse_TermExpansion(t *testing.T) {
	cases := []struct {
		formula string
		want    []string
	}{
		{"source", []string{"source"}},
		{"a+b", []string{"a", "b"}},
		{"a:b", []string{"a:b"}},
		{"a*b", []string{"a", "b", "a:b"}},
		{"a/b", []string{"a", "a:b"}},
		{"a/(b*c)", []string{"a", "a:b", "a:c", "a:b:c"}},
		// main effects first, then two-way, then higher orders
		{"a*b*c", []string{"a", "b", "c", "a:b", "a:c", "b:c", "a:b:c"}},
		{
			"source/(cage*experiment*run)*day",
			[]string{
				"source", "day",
				"source:cage", "source:experiment", "source:run", "source:day",
				"source:cage:experiment", "source:cage:run", "source:experiment:run",
				"source:cage:day", "source:experiment:day", "source:run:day",
				"source:cage:experiment:run",
				"source:cage:experiment:day", "source:cage:run:day", "source:experiment:run:day",
				"source:cage:experiment:run:day",
			},
		},
	}
	for _, c := range cases {
		f, err := Parse(c.formula)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.formula, err)
		}
		if got := termNames(f); !reflect.DeepEqual(got, c.want) {
			t.Errorf("Parse(%q).Terms() = %v, want %v", c.formula, got, c.want)
		}
	}
}

func TestParse_Deterministic(t *testing.T) {
	a, err := Parse("source/(cage*experiment*run)*day")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("source/(cage*experiment*run)*day")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Terms(), b.Terms()) {
		t.Error("identical formulas expanded differently")
	}
}

func TestParse_OrderMatters(t *testing.T) {
	ab := termNames(MustParse("a*b"))
	ba := termNames(MustParse("b*a"))
	if reflect.DeepEqual(ab, ba) {
		t.Errorf("a*b and b*a should declare different term orders, both gave %v", ab)
	}
}

func TestParse_Factors(t *testing.T) {
	f := MustParse("source/(cage*experiment*run)*day")
	want := []string{"source", "day", "cage", "experiment", "run"}
	if got := f.Factors(); !reflect.DeepEqual(got, want) {
		t.Errorf("Factors() = %v, want %v", got, want)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, bad := range []string{"", "a*", "(a", "a**b", "*a", "a b", "a&b"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q): want error", bad)
		} else if !core.IsDesignError(err) {
			t.Errorf("Parse(%q): want design error, got %v", bad, err)
		}
	}
}
