// Package sheets defines the spreadsheet mirror port and the tabular layout
// shared by its adapters.
package sheets

import (
	"context"
	"errors"
	"strconv"

	"bilancio/internal/report"
)

// ErrRejected marks writes the spreadsheet refused for a reason a retry
// cannot fix, such as a missing permission or a malformed request.
var ErrRejected = errors.New("spreadsheet rejected the write")

// StatementWriter replaces the contents of one tab with a full statement.
type StatementWriter interface {
	WriteStatement(ctx context.Context, tab string, st report.Statement) error
}

// Header is the first row of every mirrored tab.
var Header = []string{"Date", "Type", "Amount", "Category", "Description", "Balance"}

// TabName is the tab holding a user's statement. Emails are not used so the
// spreadsheet does not leak them.
func TabName(userID int64) string {
	return "user-" + strconv.FormatInt(userID, 10)
}

// Rows lays out st as header, one row per transaction (newest first), a blank
// separator and the totals.
func Rows(st report.Statement) [][]string {
	out := make([][]string, 0, len(st.Rows)+5)
	out = append(out, append([]string(nil), Header...))
	for _, r := range st.Rows {
		out = append(out, []string{
			r.Date.String(),
			string(r.Type),
			r.Amount.String(),
			r.CategoryName,
			r.Description,
			r.Running.String(),
		})
	}
	out = append(out,
		[]string{},
		[]string{"Total income", "", st.Income.String()},
		[]string{"Total expenses", "", st.Expense.String()},
		[]string{"Balance", "", st.Balance().String()},
	)
	return out
}
