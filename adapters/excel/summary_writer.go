// Package excel exports the threshold summary as a workbook for people who
// keep their lab records in spreadsheets.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"psychofit/domain/psychometric"
	"psychofit/internal/report"
)

const summarySheet = "Thresholds"

// WriteSummary writes one workbook: a Thresholds sheet with the per-dataset
// comparison and a Levels sheet per dataset with the aggregated performance
// levels behind it.
func WriteSummary(path string, summary report.Summary, results []*psychometric.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)

	headers := []string{"Dataset", "Simple Threshold", "Fitted Threshold", "R²", "N Trials"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return err
		}
	}
	for rowIdx, row := range summary.Rows {
		values := []interface{}{
			row.Dataset,
			thresholdCell(row.SimpleThreshold),
			thresholdCell(row.FittedThreshold),
			rsqCell(row.RSquared),
			row.NTrials,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
	}

	for _, result := range results {
		if result == nil {
			continue
		}
		if err := writeLevelsSheet(f, result); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func writeLevelsSheet(f *excelize.File, result *psychometric.AnalysisResult) error {
	sheet := result.Dataset.String()
	if len(sheet) > 31 {
		// Excel caps sheet names at 31 characters
		sheet = sheet[:31]
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Intensity", "Proportion Correct", "Trial Count"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, lv := range result.Levels {
		values := []interface{}{lv.Intensity, lv.ProportionCorrect, lv.TrialCount}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func thresholdCell(t psychometric.Threshold) interface{} {
	if t.Undetermined() {
		return "N/A"
	}
	return t.Value()
}

func rsqCell(rsq *float64) interface{} {
	if rsq == nil {
		return "N/A"
	}
	return *rsq
}
