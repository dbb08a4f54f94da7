// Package testkit builds deterministic fixtures for the analysis tests:
// small hand-constructed distance matrices and synthetic vendor-study
// datasets with a known group structure.
package testkit

import (
	"fmt"
	"math/rand"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
)

// FourSampleLabels are the labels of the canonical two-group fixture.
var FourSampleLabels = []core.SampleLabel{"A", "B", "C", "D"}

// FourSampleMatrix builds the canonical balanced fixture: A,B in one group,
// C,D in the other, within-group distance 0.1, between-group distance 0.9.
func FourSampleMatrix() *dist.Matrix {
	m, err := dist.FromLowerTriangle(FourSampleLabels, [][]float64{
		{},
		{0.1},
		{0.9, 0.9},
		{0.9, 0.9, 0.1},
	})
	if err != nil {
		panic(err)
	}
	return m
}

// FourSampleTable attaches the two-level "group" factor to the canonical
// fixture.
func FourSampleTable() *sample.Table {
	t, err := sample.Join(FourSampleLabels,
		[]sample.Record{
			{ID: "A", Values: map[string]string{"group": "g1"}},
			{ID: "B", Values: map[string]string{"group": "g1"}},
			{ID: "C", Values: map[string]string{"group": "g2"}},
			{ID: "D", Values: map[string]string{"group": "g2"}},
		},
		sample.LevelSpecs{{Column: "group", Levels: []string{"g1", "g2"}}},
		sample.JoinOptions{},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// SyntheticStudy generates a seeded vendor-study dataset: two sources, two
// cages per source, one mouse per cage, the given days. Within-source
// distances are small, across-source distances large, with deterministic
// jitter so permutation tests have variation to work with.
func SyntheticStudy(seed int64, days []string) (*dist.Matrix, []sample.Record) {
	rng := rand.New(rand.NewSource(seed))

	type mouse struct {
		source string
		cage   string
		id     string
	}
	var mice []mouse
	for _, src := range []string{"jackson", "taconic"} {
		for c := 1; c <= 2; c++ {
			cage := fmt.Sprintf("%s_c%d", src, c)
			mice = append(mice, mouse{source: src, cage: cage, id: cage + "_m1"})
		}
	}

	var labels []core.SampleLabel
	var records []sample.Record
	for _, day := range days {
		for _, m := range mice {
			label := fmt.Sprintf("D%s_%s", day, m.id)
			labels = append(labels, core.SampleLabel(label))
			records = append(records, sample.Record{
				ID: core.SampleLabel(label),
				Values: map[string]string{
					"source":      m.source,
					"cage":        m.cage,
					"unique_cage": m.cage,
					"experiment":  "1",
					"run":         "1",
					"day":         day,
					"mouse_id":    m.id,
				},
			})
		}
	}

	n := len(labels)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, i)
		for j := 0; j < i; j++ {
			base := 0.15
			if records[i].Values["source"] != records[j].Values["source"] {
				base = 0.75
			}
			rows[i][j] = base + 0.1*rng.Float64()
		}
	}
	m, err := dist.FromLowerTriangle(labels, rows)
	if err != nil {
		panic(err)
	}
	return m, records
}
