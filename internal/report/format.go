package report

import (
	"fmt"
	"time"

	"bilancio/internal/core"
)

type Format string

const (
	CSV  Format = "csv"
	PDF  Format = "pdf"
	XLSX Format = "xlsx"
)

// ParseFormat accepts the export formats served at /export/{format}.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case CSV, PDF, XLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrExportFormatUnsupported, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case PDF:
		return "application/pdf"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Filename is the attachment name, e.g. transactions_20240315.csv.
func (f Format) Filename(now time.Time) string {
	base := "transactions"
	if f == PDF {
		base = "financial_report"
	}
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102"), f)
}
