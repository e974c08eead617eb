package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// pdfFont is an embedded UTF-8 font, so category names and descriptions keep
// letters the core PDF fonts lack.
const pdfFont = "Go"

// pdfColumns are the statement table columns and their widths in mm.
var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 24, "L"},
	{"Type", 20, "L"},
	{"Amount", 26, "R"},
	{"Category", 36, "L"},
	{"Description", 58, "L"},
	{"Balance", 26, "R"},
}

// WritePDF renders the statement as an A4 report. chartPNG, when non-empty,
// is embedded under the totals.
func WritePDF(w io.Writer, st Statement, generated time.Time, chartPNG []byte) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Financial Report", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddUTF8FontFromBytes(pdfFont, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", gobold.TTF)

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(0, 10, "Financial Report", "", 1, "C", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(0, 6, "Generated on "+generated.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(pdfFont, "B", 11)
	for _, line := range [][2]string{
		{"Total income", st.Income.String()},
		{"Total expenses", st.Expense.String()},
		{"Balance", st.Balance().String()},
	} {
		pdf.CellFormat(40, 7, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, line[1], "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	if len(chartPNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("monthly", opts, bytes.NewReader(chartPNG))
		pdf.ImageOptions("monthly", 15, pdf.GetY(), 180, 0, true, opts, 0, "")
		pdf.Ln(4)
	}

	header := func() {
		pdf.SetFont(pdfFont, "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", 9)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, r := range st.Rows {
		if pdf.GetY()+6 > pageHeight-bottom-15 {
			pdf.AddPage()
			header()
		}
		cells := []string{
			r.Date.String(),
			string(r.Type),
			r.Amount.String(),
			truncate(r.CategoryName, 22),
			truncate(r.Description, 36),
			r.Running.String(),
		}
		for i, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(st.Rows) == 0 {
		pdf.CellFormat(0, 7, "No transactions recorded.", "", 1, "L", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
