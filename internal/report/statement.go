// Package report turns transactions and aggregates into downloadable
// statements (CSV, PDF, XLSX) and PNG charts.
package report

import (
	"sort"

	"bilancio/internal/core"
)

// Row is one statement line. Running is the balance after this transaction
// was applied in chronological order.
type Row struct {
	core.Transaction
	Running core.Money
}

type Statement struct {
	Rows    []Row
	Income  core.Money
	Expense core.Money
}

// Balance is total income minus total expense.
func (s Statement) Balance() core.Money {
	return s.Income.Sub(s.Expense)
}

// BuildStatement keeps the input order of txs (normally newest first) while
// computing running balances oldest first: by date, then by id.
func BuildStatement(txs []core.Transaction) Statement {
	st := Statement{Rows: make([]Row, len(txs))}

	order := make([]int, len(txs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := txs[order[a]], txs[order[b]]
		if !ta.Date.Equal(tb.Date.Time) {
			return ta.Date.Before(tb.Date.Time)
		}
		return ta.ID < tb.ID
	})

	var running core.Money
	for _, i := range order {
		t := txs[i]
		running = running.Add(t.Signed())
		st.Rows[i] = Row{Transaction: t, Running: running}
		switch t.Type {
		case core.Income:
			st.Income = st.Income.Add(t.Amount)
		case core.Expense:
			st.Expense = st.Expense.Add(t.Amount)
		}
	}
	return st
}
