package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Transactions"

// WriteXLSX writes the statement table to a single-sheet workbook with the
// totals below it. Amounts are numeric cells.
func WriteXLSX(w io.Writer, st Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	headers := []string{"Date", "Type", "Amount", "Category", "Description", "Balance"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(xlsxSheet, cell, h)
	}
	f.SetCellStyle(xlsxSheet, "A1", "F1", bold)

	for i, r := range st.Rows {
		row := i + 2
		f.SetCellValue(xlsxSheet, fmt.Sprintf("A%d", row), r.Date.String())
		f.SetCellValue(xlsxSheet, fmt.Sprintf("B%d", row), string(r.Type))
		f.SetCellValue(xlsxSheet, fmt.Sprintf("C%d", row), r.Amount.Float())
		f.SetCellValue(xlsxSheet, fmt.Sprintf("D%d", row), r.CategoryName)
		f.SetCellValue(xlsxSheet, fmt.Sprintf("E%d", row), r.Description)
		f.SetCellValue(xlsxSheet, fmt.Sprintf("F%d", row), r.Running.Float())
	}
	last := len(st.Rows) + 1
	if last > 1 {
		f.SetCellStyle(xlsxSheet, "C2", fmt.Sprintf("C%d", last), money)
		f.SetCellStyle(xlsxSheet, "F2", fmt.Sprintf("F%d", last), money)
	}

	totals := last + 2
	for i, line := range []struct {
		label string
		value float64
	}{
		{"Total income", st.Income.Float()},
		{"Total expenses", st.Expense.Float()},
		{"Balance", st.Balance().Float()},
	} {
		row := totals + i
		f.SetCellValue(xlsxSheet, fmt.Sprintf("A%d", row), line.label)
		f.SetCellValue(xlsxSheet, fmt.Sprintf("C%d", row), line.value)
		f.SetCellStyle(xlsxSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), bold)
		f.SetCellStyle(xlsxSheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), money)
	}

	f.SetColWidth(xlsxSheet, "A", "A", 12)
	f.SetColWidth(xlsxSheet, "B", "B", 10)
	f.SetColWidth(xlsxSheet, "C", "C", 12)
	f.SetColWidth(xlsxSheet, "D", "D", 18)
	f.SetColWidth(xlsxSheet, "E", "E", 36)
	f.SetColWidth(xlsxSheet, "F", "F", 12)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
