package analytics

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetUtilization = "Utilization"
	sheetRates       = "Rates"
	sheetEvolution   = "Evolution"
)

// ExportXLSX renders a credit report as an XLSX workbook
func ExportXLSX(report *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// The default "Sheet1" becomes the utilization sheet
	if err := f.SetSheetName("Sheet1", sheetUtilization); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetRates); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", sheetRates, err)
	}
	if _, err := f.NewSheet(sheetEvolution); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", sheetEvolution, err)
	}

	rows := map[string][][]interface{}{
		sheetUtilization: {
			{"Total limit", "Used", "Available", "Total debt"},
			{
				report.Utilization.TotalLimit.InexactFloat64(),
				report.Utilization.Used.InexactFloat64(),
				report.Utilization.Available.InexactFloat64(),
				report.TotalDebt.InexactFloat64(),
			},
		},
		sheetRates:     {{"Interest rate", "Limit", "Used", "Percentage"}},
		sheetEvolution: {{"Period", "Start", "End", "Spending", "Repayment"}},
	}

	for _, g := range report.RateGroups {
		rows[sheetRates] = append(rows[sheetRates], []interface{}{
			g.InterestRate.InexactFloat64(),
			g.Limit.InexactFloat64(),
			g.Used.InexactFloat64(),
			g.Percentage.InexactFloat64(),
		})
	}
	for _, b := range report.Evolution {
		rows[sheetEvolution] = append(rows[sheetEvolution], []interface{}{
			b.Label,
			b.Start.Format("2006-01-02"),
			b.End.Format("2006-01-02"),
			b.Spending.InexactFloat64(),
			b.Repayment.InexactFloat64(),
		})
	}

	for sheet, sheetRows := range rows {
		for i, row := range sheetRows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
			}
		}
	}

	if err := f.SetColWidth(sheetEvolution, "A", "A", 18); err != nil {
		return nil, fmt.Errorf("failed to size %s columns: %w", sheetEvolution, err)
	}
	if err := f.SetColWidth(sheetEvolution, "B", "C", 12); err != nil {
		return nil, fmt.Errorf("failed to size %s columns: %w", sheetEvolution, err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
