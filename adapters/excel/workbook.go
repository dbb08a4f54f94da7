// Package excel exports aggregated result tables as a workbook for the
// manuscript supplement, one sheet per subset.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/report"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/run"
)

const manifestSheet = "run"

// WriteWorkbook writes one sheet per subset of the aggregated table, plus a
// manifest sheet recording the reproducibility parameters.
func WriteWorkbook(path string, m *run.Manifest, t *report.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeManifestSheet(f, m); err != nil {
		return err
	}

	subsets := t.Subsets()
	if len(subsets) == 0 {
		subsets = []string{""}
	}
	for _, subset := range subsets {
		sheet := subset
		if sheet == "" {
			sheet = "results"
		}
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet, err)
		}
		rows := [][]interface{}{{"effects", "df", "sum_sq", "r_sq", "p"}}
		for _, r := range t.ForSubset(subset) {
			rows = append(rows, []interface{}{r.Effect, r.Df, r.SumSq, r.RSquared, r.P})
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("writing sheet %q row %d: %w", sheet, i+1, err)
			}
		}
	}

	// drop the default sheet excelize creates
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeManifestSheet(f *excelize.File, m *run.Manifest) error {
	if _, err := f.NewSheet(manifestSheet); err != nil {
		return fmt.Errorf("creating manifest sheet: %w", err)
	}
	rows := [][]interface{}{
		{"run_id", m.RunID.String()},
		{"formula", m.Formula},
		{"seed", m.Seed},
		{"permutations", m.Permutations},
		{"strata", m.Strata},
		{"input_hash", string(m.InputHash)},
		{"design_hash", string(m.DesignHash)},
		{"fingerprint", string(m.Fingerprint)},
		{"created_at", m.CreatedAt.Format("2006-01-02 15:04:05")},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(manifestSheet, cell, &row); err != nil {
			return fmt.Errorf("writing manifest row %d: %w", i+1, err)
		}
	}
	return nil
}
