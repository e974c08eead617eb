package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"bilancio/internal/core"
)

func tx(id int64, typ core.TransactionType, cents int64, date, category, desc string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:           id,
		Type:         typ,
		Amount:       core.Money{Cents: cents},
		CategoryID:   1,
		CategoryName: category,
		Date:         d,
		Description:  desc,
	}
}

// Newest first, same-day rows by id, the way the store returns them.
func sample() []core.Transaction {
	return []core.Transaction{
		tx(4, core.Expense, 1550, "2024-03-20", "Food", "dinner, with \"friends\""),
		tx(2, core.Expense, 3000, "2024-03-05", "Food", "groceries"),
		tx(3, core.Expense, 1000, "2024-03-05", "Bills", ""),
		tx(1, core.Income, 200000, "2024-03-01", "Salary", "March"),
	}
}

func TestBuildStatement(t *testing.T) {
	st := BuildStatement(sample())

	if st.Income.String() != "2000.00" || st.Expense.String() != "55.50" || st.Balance().String() != "1944.50" {
		t.Fatalf("unexpected totals %s / %s / %s", st.Income, st.Expense, st.Balance())
	}
	wantIDs := []int64{4, 2, 3, 1}
	wantRunning := []string{"1944.50", "1970.00", "1960.00", "2000.00"}
	for i, r := range st.Rows {
		if r.ID != wantIDs[i] {
			t.Fatalf("row %d: expected id %d, got %d", i, wantIDs[i], r.ID)
		}
		if r.Running.String() != wantRunning[i] {
			t.Fatalf("row %d: expected running %s, got %s", i, wantRunning[i], r.Running)
		}
	}

	empty := BuildStatement(nil)
	if len(empty.Rows) != 0 || empty.Balance().Cents != 0 {
		t.Fatalf("unexpected empty statement %+v", empty)
	}
}

// fromForm builds a transaction the way the services do, from raw form text.
func fromForm(t *testing.T, id int64, desc string) core.Transaction {
	t.Helper()
	d, err := core.TransactionInput{Type: "expense", Amount: "1", CategoryID: "1", Date: "2024-02-01", Description: desc}.Parse()
	if err != nil {
		t.Fatal(err)
	}
	tx := d.Transaction(1)
	tx.ID = id
	tx.CategoryName = "Misc"
	return tx
}

func TestCSVRoundTrip(t *testing.T) {
	txs := append(sample(),
		fromForm(t, 5, "line one\r\nline two"),
		fromForm(t, 6, "carriage\rreturn"),
	)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "date,type,amount,category,description\n") {
		t.Fatalf("unexpected header in %q", buf.String())
	}
	if !strings.Contains(buf.String(), "2024-03-01,income,2000.00,Salary,March\n") {
		t.Fatalf("unexpected row format in %q", buf.String())
	}

	records, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(txs) {
		t.Fatalf("expected %d records, got %d", len(txs), len(records))
	}
	for i, rec := range records {
		want := RecordOf(txs[i])
		if rec.Date.String() != want.Date.String() || rec.Type != want.Type || rec.Amount != want.Amount ||
			rec.Category != want.Category || rec.Description != want.Description {
			t.Fatalf("record %d: expected %+v, got %+v", i, want, rec)
		}
	}
}

func TestCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	records, err := ReadCSV(&buf)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected no records, got %v (%v)", records, err)
	}
}

func TestReadCSVRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"header": "when,type,amount,category,description\n",
		"date":   "date,type,amount,category,description\n2024-02-30,income,1.00,x,\n",
		"type":   "date,type,amount,category,description\n2024-02-01,gift,1.00,x,\n",
		"amount": "date,type,amount,category,description\n2024-02-01,income,-1,x,\n",
		"fields": "date,type,amount,category,description\n2024-02-01,income\n",
	}
	for name, in := range cases {
		if _, err := ReadCSV(strings.NewReader(in)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"csv", "pdf", "xlsx"} {
		f, err := ParseFormat(ok)
		if err != nil || string(f) != ok {
			t.Fatalf("%s: unexpected %q %v", ok, f, err)
		}
	}
	for _, bad := range []string{"", "xml", "CSV", "json"} {
		if _, err := ParseFormat(bad); !errors.Is(err, core.ErrExportFormatUnsupported) {
			t.Fatalf("%q: expected ErrExportFormatUnsupported, got %v", bad, err)
		}
	}
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if got := CSV.Filename(now); got != "transactions_20240315.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := PDF.Filename(now); got != "financial_report_20240315.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestCharts(t *testing.T) {
	series := []core.MonthTotal{
		{YearMonth: "2024-01", Total: core.Money{Cents: 700}},
		{YearMonth: "2024-03", Total: core.Money{Cents: 4550}},
	}
	png, err := MonthlyExpenseChart(series)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatal("monthly chart is not a PNG")
	}

	pie, err := CategoryPieChart([]core.CategoryAmount{
		{Name: "Bills", Amount: core.Money{Cents: 1550}},
		{Name: "Food", Amount: core.Money{Cents: 3000}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pie, pngMagic) {
		t.Fatal("pie chart is not a PNG")
	}

	if _, err := MonthlyExpenseChart(nil); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
	if _, err := CategoryPieChart(nil); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
}

func TestWritePDF(t *testing.T) {
	st := BuildStatement(sample())
	png, err := MonthlyExpenseChart([]core.MonthTotal{{YearMonth: "2024-03", Total: core.Money{Cents: 5550}}})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, st, time.Now(), png); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}

	buf.Reset()
	if err := WritePDF(&buf, BuildStatement(nil), time.Now(), nil); err != nil {
		t.Fatalf("empty statement: %v", err)
	}
}

func TestWritePDFEmbedsUnicodeFont(t *testing.T) {
	st := BuildStatement([]core.Transaction{
		tx(1, core.Expense, 1299, "2024-03-02", "Zakupy spożywcze", "chleb, masło i ser żółty z targu na rogu ulicy"),
	})
	var buf bytes.Buffer
	if err := WritePDF(&buf, st, time.Now(), nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/FontFile2")) {
		t.Fatal("expected an embedded TrueType font")
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	got := truncate("łąka żółć gęślą jaźń", 10)
	if got != "łąka żó..." || !utf8.ValidString(got) {
		t.Fatalf("truncate = %q", got)
	}
	if truncate("short", 10) != "short" {
		t.Fatal("short strings must be unchanged")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, BuildStatement(sample())); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0] != "Date" || rows[1][0] != "2024-03-20" || rows[4][3] != "Salary" {
		t.Fatalf("unexpected rows %v", rows)
	}
	label, _ := f.GetCellValue(xlsxSheet, "A7")
	if label != "Total income" {
		t.Fatalf("expected totals block at A7, got %q", label)
	}
}
