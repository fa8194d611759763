// internal/services/report_export.go
package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	changesSheet  = "Changes"
	failuresSheet = "Failures"
	summarySheet  = "Summary"
)

// ExportReportXLSX renders the untruncated report as a workbook with a
// summary sheet, one row per price change and one row per failed product.
func ExportReportXLSX(report *RecalculationReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(changesSheet); err != nil {
		return nil, fmt.Errorf("failed to create changes sheet: %w", err)
	}
	if _, err := f.NewSheet(failuresSheet); err != nil {
		return nil, fmt.Errorf("failed to create failures sheet: %w", err)
	}

	summaryRows := [][]interface{}{
		{"Dry run", report.DryRun},
		{"Completed", report.Completed},
		{"Started at", report.StartedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Finished at", report.FinishedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Processed", report.Processed},
		{"Failed", report.Failed},
		{"Prices changed", report.PricesChanged},
		{"Price increases", report.PriceIncreases},
		{"Price decreases", report.PriceDecreases},
		{"Total diff", report.TotalDiff},
	}
	if err := writeRows(f, summarySheet, summaryRows); err != nil {
		return nil, err
	}

	changeRows := make([][]interface{}, 0, len(report.Changes)+1)
	changeRows = append(changeRows, []interface{}{"Product ID", "Name", "Old price", "New price", "Diff"})
	for _, c := range report.Changes {
		changeRows = append(changeRows, []interface{}{c.ProductID, c.Name, c.OldPrice, c.NewPrice, c.Diff})
	}
	if err := writeRows(f, changesSheet, changeRows); err != nil {
		return nil, err
	}

	failureRows := make([][]interface{}, 0, len(report.Failures)+1)
	failureRows = append(failureRows, []interface{}{"Product ID", "Name", "Error"})
	for _, fp := range report.Failures {
		failureRows = append(failureRows, []interface{}{fp.ProductID, fp.Name, fp.Error})
	}
	if err := writeRows(f, failuresSheet, failureRows); err != nil {
		return nil, err
	}

	if err := f.SetColWidth(changesSheet, "A", "A", 38); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(changesSheet, "B", "B", 32); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
