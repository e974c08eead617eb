package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"bilancio/internal/core"
)

var csvHeader = []string{"date", "type", "amount", "category", "description"}

// Record is one CSV line in typed form.
type Record struct {
	Date        core.Date
	Type        core.TransactionType
	Amount      core.Money
	Category    string
	Description string
}

// RecordOf projects a transaction onto the exported columns.
func RecordOf(t core.Transaction) Record {
	return Record{
		Date:        t.Date,
		Type:        t.Type,
		Amount:      t.Amount,
		Category:    t.CategoryName,
		Description: t.Description,
	}
}

// WriteCSV writes a header and one line per transaction in the given order.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		err := cw.Write([]string{
			t.Date.String(),
			string(t.Type),
			t.Amount.String(),
			t.CategoryName,
			t.Description,
		})
		if err != nil {
			return fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses output of WriteCSV.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range csvHeader {
		if header[i] != h {
			return nil, fmt.Errorf("unexpected csv column %d: %q", i+1, header[i])
		}
	}

	var out []Record
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRecord(fields []string) (Record, error) {
	date, err := core.ParseDate(fields[0])
	if err != nil {
		return Record{}, err
	}
	typ, err := core.ParseTransactionType(fields[1])
	if err != nil {
		return Record{}, err
	}
	cents, err := core.ParseDecimalToCents(fields[2])
	if err != nil {
		return Record{}, err
	}
	return Record{
		Date:        date,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Category:    fields[3],
		Description: fields[4],
	}, nil
}
