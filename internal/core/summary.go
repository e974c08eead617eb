package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthTotal is one point of the monthly expense series.
type MonthTotal struct {
	YearMonth string // YYYY-MM
	Total     Money
}

// MonthBalance is the income/expense split for one calendar month.
type MonthBalance struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
}

// Balance is always derived from the two sums, never stored.
func (b MonthBalance) Balance() Money {
	return b.Income.Sub(b.Expense)
}

// TransactionFilter narrows a transaction listing. Zero values mean "no filter";
// DateFrom and DateTo are inclusive.
type TransactionFilter struct {
	Type       TransactionType
	CategoryID int64
	DateFrom   Date
	DateTo     Date
}

// Empty reports whether no filter is set.
func (f TransactionFilter) Empty() bool {
	return f.Type == "" && f.CategoryID == 0 && f.DateFrom.IsZero() && f.DateTo.IsZero()
}
