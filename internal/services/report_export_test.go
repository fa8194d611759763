package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportReportXLSX(t *testing.T) {
	report := &RecalculationReport{
		DryRun:        true,
		Completed:     true,
		StartedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2026, 3, 1, 10, 0, 2, 0, time.UTC),
		Processed:     2,
		Failed:        1,
		PricesChanged: 1,
		TotalDiff:     120.5,
		Changes: []PriceChange{
			{ProductID: "p-1", Name: "Solitaire Ring", OldPrice: 1000, NewPrice: 1120.5, Diff: 120.5},
		},
		Failures: []FailedProduct{
			{ProductID: "p-2", Name: "Old Pendant", Error: "metal not found"},
		},
	}

	data, err := ExportReportXLSX(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, changesSheet, failuresSheet}, f.GetSheetList())

	changes, err := f.GetRows(changesSheet)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, []string{"Product ID", "Name", "Old price", "New price", "Diff"}, changes[0])
	assert.Equal(t, "Solitaire Ring", changes[1][1])
	assert.Equal(t, "1120.5", changes[1][3])

	failures, err := f.GetRows(failuresSheet)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "metal not found", failures[1][2])

	processed, err := f.GetCellValue(summarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "2", processed)
}

func TestExportReportXLSXEmpty(t *testing.T) {
	data, err := ExportReportXLSX(&RecalculationReport{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(changesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
