package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/report"
	"bilancio/internal/services"
)

type dashboardView struct {
	services.Dashboard
	MonthName  string
	Categories []core.Category
	Types      []core.TransactionType
	Today      string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, id core.Identity) {
	ctx := r.Context()
	d, err := s.aggregator.Dashboard(ctx, id)
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}
	cats, err := s.categories.List(ctx, id)
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", "Dashboard", "dashboard", dashboardView{
		Dashboard:  d,
		MonthName:  MonthParams{Year: d.Month.Year, Month: d.Month.Month}.Name(),
		Categories: cats,
		Types:      transactionTypes,
		Today:      s.today(),
	})
}

// handleExpenseChart draws the current month's expenses by category.
func (s *Server) handleExpenseChart(w http.ResponseWriter, r *http.Request, id core.Identity) {
	d, err := s.aggregator.Dashboard(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	png, err := report.CategoryPieChart(d.Breakdown)
	s.writePNG(w, r, png, err)
}
