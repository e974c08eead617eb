package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/cache"
	"bilancio/internal/core"
)

// DefaultRecentLimit is the number of rows shown in "recent transactions".
const DefaultRecentLimit = 5

// Dashboard is everything the home page shows for one calendar month.
type Dashboard struct {
	Month     core.MonthBalance
	Recent    []core.Transaction
	Breakdown []core.CategoryAmount
}

// Aggregator derives sums, groupings and balances from the transaction store.
// All arithmetic happens in SQL over integer cents.
type Aggregator struct {
	store AggregateStore
	now   func() time.Time

	dashboards cache.Cache[Dashboard]
	series     cache.Cache[[]core.MonthTotal]

	// gens counts invalidations per user. A load only fills the cache when no
	// write invalidated the user while it ran.
	mu   sync.Mutex
	gens map[int64]uint64
}

// NewAggregator uses now as the clock for "current month" questions; nil means
// time.Now in the server's local zone.
func NewAggregator(store AggregateStore, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{store: store, now: now, gens: make(map[int64]uint64)}
}

// WithCache makes Dashboard and MonthlySeries read through the given caches.
// Callers must call Invalidate after every write that affects a user.
func (a *Aggregator) WithCache(dashboards cache.Cache[Dashboard], series cache.Cache[[]core.MonthTotal]) *Aggregator {
	a.dashboards = dashboards
	a.series = series
	return a
}

// Invalidate drops every cached view of userID.
func (a *Aggregator) Invalidate(userID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gens[userID]++
	prefix := cache.UserPrefix(userID)
	if a.dashboards != nil {
		a.dashboards.DeletePrefix(prefix)
	}
	if a.series != nil {
		a.series.DeletePrefix(prefix)
	}
}

func (a *Aggregator) generation(userID int64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gens[userID]
}

// storeIfCurrent runs set unless userID was invalidated since gen was read.
func (a *Aggregator) storeIfCurrent(userID int64, gen uint64, set func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gens[userID] == gen {
		set()
	}
}

// CacheSizes reports the entries held by the dashboard and series caches.
func (a *Aggregator) CacheSizes() (dashboards, series int) {
	if a.dashboards != nil {
		dashboards = a.dashboards.Size()
	}
	if a.series != nil {
		series = a.series.Size()
	}
	return dashboards, series
}

// CurrentMonth returns the calendar year and month of the clock.
func (a *Aggregator) CurrentMonth() (int, int) {
	now := a.now()
	return now.Year(), int(now.Month())
}

// MonthlyTotal sums one transaction type over a calendar month.
func (a *Aggregator) MonthlyTotal(ctx context.Context, id core.Identity, typ core.TransactionType, year, month int) (core.Money, error) {
	if !id.Authenticated() {
		return core.Money{}, core.ErrUnauthenticated
	}
	if !typ.Valid() {
		return core.Money{}, core.ErrInvalidType
	}
	from, to, err := core.MonthRange(year, month)
	if err != nil {
		return core.Money{}, err
	}
	return a.store.SumByType(ctx, id.UserID, typ, from, to)
}

// BalanceFor returns the income/expense split of a calendar month.
func (a *Aggregator) BalanceFor(ctx context.Context, id core.Identity, year, month int) (core.MonthBalance, error) {
	if !id.Authenticated() {
		return core.MonthBalance{}, core.ErrUnauthenticated
	}
	from, to, err := core.MonthRange(year, month)
	if err != nil {
		return core.MonthBalance{}, err
	}
	income, expense, err := a.store.IncomeExpense(ctx, id.UserID, from, to)
	if err != nil {
		return core.MonthBalance{}, err
	}
	return core.MonthBalance{Year: year, Month: month, Income: income, Expense: expense}, nil
}

// CurrentBalance is income minus expense for the month the clock is in.
func (a *Aggregator) CurrentBalance(ctx context.Context, id core.Identity) (core.Money, error) {
	year, month := a.CurrentMonth()
	b, err := a.BalanceFor(ctx, id, year, month)
	if err != nil {
		return core.Money{}, err
	}
	return b.Balance(), nil
}

// RecentTransactions returns up to limit rows, newest date first; limit <= 0
// means DefaultRecentLimit.
func (a *Aggregator) RecentTransactions(ctx context.Context, id core.Identity, limit int) ([]core.Transaction, error) {
	if !id.Authenticated() {
		return nil, core.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return a.store.RecentTransactions(ctx, id.UserID, limit)
}

// ExpenseBreakdownByCategory groups a month's expenses by category name.
func (a *Aggregator) ExpenseBreakdownByCategory(ctx context.Context, id core.Identity, year, month int) ([]core.CategoryAmount, error) {
	if !id.Authenticated() {
		return nil, core.ErrUnauthenticated
	}
	from, to, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	return a.store.ExpenseByCategory(ctx, id.UserID, from, to)
}

// MonthlySeries returns all-time expense totals per YYYY-MM, ascending.
func (a *Aggregator) MonthlySeries(ctx context.Context, id core.Identity) ([]core.MonthTotal, error) {
	if !id.Authenticated() {
		return nil, core.ErrUnauthenticated
	}
	key := cache.UserKey("series", id.UserID)
	if a.series != nil {
		if v, ok := a.series.Get(key); ok {
			return v, nil
		}
	}
	gen := a.generation(id.UserID)
	series, err := a.store.MonthlyExpenseTotals(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if a.series != nil {
		a.storeIfCurrent(id.UserID, gen, func() { a.series.Set(key, series) })
	}
	return series, nil
}

// FilteredTransactions lists the user's transactions matching f, newest first.
func (a *Aggregator) FilteredTransactions(ctx context.Context, id core.Identity, f core.TransactionFilter) ([]core.Transaction, error) {
	if !id.Authenticated() {
		return nil, core.ErrUnauthenticated
	}
	return a.store.FilterTransactions(ctx, id.UserID, f)
}

// Dashboard loads the current month's view, querying its parts concurrently.
func (a *Aggregator) Dashboard(ctx context.Context, id core.Identity) (Dashboard, error) {
	if !id.Authenticated() {
		return Dashboard{}, core.ErrUnauthenticated
	}
	year, month := a.CurrentMonth()
	key := cache.UserKey("dash", id.UserID, core.NewDate(year, month, 1).YearMonth())
	if a.dashboards != nil {
		if v, ok := a.dashboards.Get(key); ok {
			return v, nil
		}
	}

	gen := a.generation(id.UserID)
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := a.BalanceFor(gctx, id, year, month)
		d.Month = b
		return err
	})
	g.Go(func() error {
		rows, err := a.RecentTransactions(gctx, id, DefaultRecentLimit)
		d.Recent = rows
		return err
	})
	g.Go(func() error {
		rows, err := a.ExpenseBreakdownByCategory(gctx, id, year, month)
		d.Breakdown = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	if a.dashboards != nil {
		a.storeIfCurrent(id.UserID, gen, func() { a.dashboards.Set(key, d) })
	}
	return d, nil
}
