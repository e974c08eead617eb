package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/report"
)

type reportsView struct {
	Month     MonthParams
	Prev      MonthParams
	Next      MonthParams
	Balance   core.MonthBalance
	Breakdown []core.CategoryAmount
	Series    []core.MonthTotal
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request, id core.Identity) {
	ctx := r.Context()
	month := ParseMonthParams(r.URL.Query(), s.now())

	balance, err := s.aggregator.BalanceFor(ctx, id, month.Year, month.Month)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	breakdown, err := s.aggregator.ExpenseBreakdownByCategory(ctx, id, month.Year, month.Month)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	series, err := s.aggregator.MonthlySeries(ctx, id)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}

	s.render(w, r, http.StatusOK, "reports.html", "Reports", "reports", reportsView{
		Month:     month,
		Prev:      month.Prev(),
		Next:      month.Next(),
		Balance:   balance,
		Breakdown: breakdown,
		Series:    series,
	})
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request, id core.Identity) {
	series, err := s.aggregator.MonthlySeries(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	png, err := report.MonthlyExpenseChart(series)
	s.writePNG(w, r, png, err)
}

// handleExport streams the user's transactions, optionally narrowed by the
// same filters as the transaction list, as CSV, PDF or XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, id core.Identity) {
	ctx := r.Context()
	format, err := report.ParseFormat(r.PathValue("format"))
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	filter, err := filterInput(r.URL.Query()).Parse()
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}
	txs, err := s.aggregator.FilteredTransactions(ctx, id, filter)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}

	now := s.now()
	var buf bytes.Buffer
	switch format {
	case report.CSV:
		err = report.WriteCSV(&buf, txs)
	case report.PDF:
		var chart []byte
		if chart, err = s.monthlyChart(ctx, id); err == nil {
			err = report.WritePDF(&buf, report.BuildStatement(txs), now, chart)
		}
	case report.XLSX:
		err = report.WriteXLSX(&buf, report.BuildStatement(txs))
	}
	if err != nil {
		s.fail(w, r, fmt.Errorf("export %s: %w", format, err), "/")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Export generated",
		log.FieldOperation, log.OpExport,
		log.FieldFormat, string(format),
		"rows", len(txs),
		"bytes", buf.Len())
	NewResponse(nil).Attachment(format.Filename(now), format.ContentType(), buf.Bytes()).Write(w)
}

// monthlyChart renders the expense series for the PDF; no data means no chart.
func (s *Server) monthlyChart(ctx context.Context, id core.Identity) ([]byte, error) {
	series, err := s.aggregator.MonthlySeries(ctx, id)
	if err != nil {
		return nil, err
	}
	png, err := report.MonthlyExpenseChart(series)
	if errors.Is(err, report.ErrNoChartData) {
		return nil, nil
	}
	return png, err
}
