/*
statement.go - Salary-basis statement renderers (CSV, PDF, Excel)

PURPOSE:
  Renders one PayrollResult as a human-facing salary basis document. The
  PDF is the per-worker statement handed to the approver; the Excel
  workbook is the bulk salary basis an admin feeds into the payroll office;
  CSV is for everything else.

  All three derive purely from the result bundle and carry no state.
*/
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// CSV
// =============================================================================

// StatementCSV renders the row ledger as CSV with a header row.
func StatementCSV(result *payroll.PayrollResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "project", "category", "name", "quantity", "unit", "unit_price", "amount", "source", "attestation"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range result.Rows {
		record := []string{
			row.Date.String(),
			string(row.ProjectID),
			string(row.Category),
			row.CategoryName,
			row.Quantity.String(),
			string(row.Unit),
			row.UnitPrice.StringFixed(2),
			row.Amount.StringFixed(2),
			row.Source,
			string(row.Attestation),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// PDF
// =============================================================================

// StatementPDF renders the per-worker salary statement. PersonalNumber, if
// given, is masked before it touches the page.
func StatementPDF(result *payroll.PayrollResult, workerName, personalNumber string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Salary Basis Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Worker: %s (%s)", workerName, MaskPersonalNumber(personalNumber)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s - %s", result.Period.Start, result.Period.End))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", result.GeneratedAt.Format("2006-01-02 15:04")))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Total worked hours: %s", result.Summary.TotalWorkedHours.String()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total gross amount (SEK): %s", result.Summary.TotalGrossAmount.StringFixed(2)))
	pdf.Ln(8)

	// Row table
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(22, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Project", "1", 0, "C", false, 0, "")
	pdf.CellFormat(46, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(16, 6, "Unit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Unit price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, row := range result.Rows {
		pdf.CellFormat(22, 6, row.Date.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, string(row.ProjectID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(46, 6, row.CategoryName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, row.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(16, 6, string(row.Unit), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, row.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 6, row.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	// Compliance findings go on the statement so the approver sees them
	// next to the numbers they concern.
	if len(result.Warnings) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Compliance findings")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		for _, w := range result.Warnings {
			pdf.Cell(0, 5, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Rule, w.Description))
			pdf.Ln(5)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// EXCEL
// =============================================================================

// StatementXLSX renders the salary basis workbook: a summary sheet and a
// rows sheet.
func StatementXLSX(result *payroll.PayrollResult) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	rowsSheet := "rows"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(rowsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Salary Basis")
	_ = f.SetCellValue(summarySheet, "A3", "Worker")
	_ = f.SetCellValue(summarySheet, "B3", string(result.WorkerID))
	_ = f.SetCellValue(summarySheet, "A4", "Period start")
	_ = f.SetCellValue(summarySheet, "B4", result.Period.Start.String())
	_ = f.SetCellValue(summarySheet, "A5", "Period end")
	_ = f.SetCellValue(summarySheet, "B5", result.Period.End.String())
	_ = f.SetCellValue(summarySheet, "A6", "Total worked hours")
	_ = f.SetCellValue(summarySheet, "B6", result.Summary.TotalWorkedHours.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A7", "Total gross amount (SEK)")
	_ = f.SetCellValue(summarySheet, "B7", result.Summary.TotalGrossAmount.InexactFloat64())

	headers := []string{"Date", "Project", "Category", "Name", "Quantity", "Unit", "Unit price", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(rowsSheet, cell, h)
	}
	for i, row := range result.Rows {
		values := []interface{}{
			row.Date.String(),
			string(row.ProjectID),
			string(row.Category),
			row.CategoryName,
			row.Quantity.InexactFloat64(),
			string(row.Unit),
			row.UnitPrice.InexactFloat64(),
			row.Amount.InexactFloat64(),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(rowsSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
