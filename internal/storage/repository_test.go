package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bilancio/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustCategory(t *testing.T, repo *SQLiteRepository, userID int64, name string) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), core.Category{Name: name, UserID: userID})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func mustTx(t *testing.T, repo *SQLiteRepository, userID, categoryID int64, typ core.TransactionType, cents int64, date string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Type:       typ,
		Amount:     core.Money{Cents: cents},
		CategoryID: categoryID,
		Date:       d,
		UserID:     userID,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	repo.Close()

	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != 1 || dirty {
		t.Fatalf("expected clean version 1, got %d dirty=%v", v, dirty)
	}
	// Re-running is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := mustUser(t, repo, "a@example.com")
	if _, err := repo.CreateUser(ctx, "a@example.com", "other"); !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	// Stored case-sensitively.
	mustUser(t, repo, "A@example.com")

	got, err := repo.UserByEmail(ctx, "a@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("lookup by email: %+v %v", got, err)
	}
	if _, err := repo.UserByEmail(ctx, "missing@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdatePassword(ctx, u.ID, "new-hash"); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.UserByID(ctx, u.ID)
	if got.PasswordHash != "new-hash" {
		t.Fatalf("password not updated: %q", got.PasswordHash)
	}
	ids, err := repo.ListUserIDs(ctx)
	if err != nil || len(ids) != 2 {
		t.Fatalf("expected 2 users, got %v (%v)", ids, err)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "a@example.com")
	food := mustCategory(t, repo, u.ID, "Food")
	mustTx(t, repo, u.ID, food.ID, core.Expense, 1000, "2024-03-01")

	if err := repo.DeleteCategory(ctx, u.ID, food.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	n, err := repo.CountTransactionsForCategory(ctx, food.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 transaction, got %d (%v)", n, err)
	}
	other := mustUser(t, repo, "b@example.com")
	mustTx(t, repo, other.ID, mustCategory(t, repo, other.ID, "Food").ID, core.Expense, 500, "2024-03-02")
	counts, err := repo.TransactionCountsByCategory(ctx, u.ID)
	if err != nil || len(counts) != 1 || counts[food.ID] != 1 {
		t.Fatalf("unexpected counts %v (%v)", counts, err)
	}
	if _, err := repo.Category(ctx, food.ID); err != nil {
		t.Fatalf("category should remain: %v", err)
	}
}

func TestCategoryOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustUser(t, repo, "a@example.com")
	b := mustUser(t, repo, "b@example.com")
	food := mustCategory(t, repo, a.ID, "Food")

	if err := repo.DeleteCategory(ctx, b.ID, food.ID); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := repo.UpdateCategory(ctx, b.ID, core.Category{ID: food.ID, Name: "Mine"}); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, a.ID, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.UpdateCategory(ctx, a.ID, core.Category{ID: food.ID, Name: "Groceries"}); err != nil {
		t.Fatal(err)
	}
	cats, _ := repo.Categories(ctx, a.ID)
	if len(cats) != 1 || cats[0].Name != "Groceries" {
		t.Fatalf("unexpected categories %+v", cats)
	}
	if err := repo.DeleteCategory(ctx, a.ID, food.ID); err != nil {
		t.Fatalf("delete unused category: %v", err)
	}
}

func TestTransactionReferencesForeignCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustUser(t, repo, "a@example.com")
	b := mustUser(t, repo, "b@example.com")
	foreign := mustCategory(t, repo, a.ID, "Food")

	_, err := repo.CreateTransaction(ctx, core.Transaction{
		Type:       core.Expense,
		Amount:     core.Money{Cents: 100},
		CategoryID: foreign.ID,
		Date:       core.NewDate(2024, 3, 1),
		UserID:     b.ID,
	})
	if !errors.Is(err, core.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	txs, _ := repo.FilterTransactions(ctx, b.ID, core.TransactionFilter{})
	if len(txs) != 0 {
		t.Fatalf("no transaction should be stored, got %d", len(txs))
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustUser(t, repo, "a@example.com")
	b := mustUser(t, repo, "b@example.com")
	food := mustCategory(t, repo, a.ID, "Food")
	rent := mustCategory(t, repo, a.ID, "Rent")
	tx := mustTx(t, repo, a.ID, food.ID, core.Expense, 1000, "2024-03-01")

	tx.CategoryID = rent.ID
	tx.Amount = core.Money{Cents: 2500}
	if err := repo.UpdateTransaction(ctx, b.ID, tx); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := repo.UpdateTransaction(ctx, a.ID, tx); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Transaction(ctx, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CategoryName != "Rent" || got.Amount.Cents != 2500 {
		t.Fatalf("unexpected transaction %+v", got)
	}

	if err := repo.DeleteTransaction(ctx, b.ID, tx.ID); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, a.ID, tx.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Transaction(ctx, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, a.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "a@example.com")
	other := mustUser(t, repo, "b@example.com")
	salary := mustCategory(t, repo, u.ID, "Salary")
	food := mustCategory(t, repo, u.ID, "Food")
	bills := mustCategory(t, repo, u.ID, "Bills")
	otherCat := mustCategory(t, repo, other.ID, "Food")

	mustTx(t, repo, u.ID, salary.ID, core.Income, 200000, "2024-03-01")
	mustTx(t, repo, u.ID, food.ID, core.Expense, 3000, "2024-03-05")
	mustTx(t, repo, u.ID, bills.ID, core.Expense, 1550, "2024-03-31")
	mustTx(t, repo, u.ID, food.ID, core.Expense, 999, "2024-04-01")
	mustTx(t, repo, u.ID, food.ID, core.Expense, 700, "2024-01-15")
	mustTx(t, repo, other.ID, otherCat.ID, core.Expense, 12345, "2024-03-05")

	from, to, _ := core.MonthRange(2024, 3)
	spent, err := repo.SumByType(ctx, u.ID, core.Expense, from, to)
	if err != nil || spent.Cents != 4550 {
		t.Fatalf("expected 4550, got %d (%v)", spent.Cents, err)
	}
	in, out, err := repo.IncomeExpense(ctx, u.ID, from, to)
	if err != nil || in.Cents != 200000 || out.Cents != 4550 {
		t.Fatalf("unexpected income/expense %d/%d (%v)", in.Cents, out.Cents, err)
	}

	from, to, _ = core.MonthRange(2023, 7)
	empty, err := repo.SumByType(ctx, u.ID, core.Income, from, to)
	if err != nil || empty.Cents != 0 {
		t.Fatalf("expected 0 for empty month, got %d (%v)", empty.Cents, err)
	}

	from, to, _ = core.MonthRange(2024, 3)
	breakdown, err := repo.ExpenseByCategory(ctx, u.ID, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(breakdown) != 2 || breakdown[0].Name != "Bills" || breakdown[1].Name != "Food" || breakdown[1].Amount.Cents != 3000 {
		t.Fatalf("unexpected breakdown %+v", breakdown)
	}

	series, err := repo.MonthlyExpenseTotals(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []core.MonthTotal{
		{YearMonth: "2024-01", Total: core.Money{Cents: 700}},
		{YearMonth: "2024-03", Total: core.Money{Cents: 4550}},
		{YearMonth: "2024-04", Total: core.Money{Cents: 999}},
	}
	if len(series) != len(want) {
		t.Fatalf("unexpected series %+v", series)
	}
	for i := range want {
		if series[i] != want[i] {
			t.Fatalf("series[%d]: expected %+v, got %+v", i, want[i], series[i])
		}
	}
}

func TestRecentAndFilteredOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "a@example.com")
	food := mustCategory(t, repo, u.ID, "Food")
	salary := mustCategory(t, repo, u.ID, "Salary")

	first := mustTx(t, repo, u.ID, food.ID, core.Expense, 100, "2024-01-10")
	second := mustTx(t, repo, u.ID, food.ID, core.Expense, 200, "2024-01-10")
	mustTx(t, repo, u.ID, food.ID, core.Expense, 300, "2024-01-20")
	mustTx(t, repo, u.ID, salary.ID, core.Income, 5000, "2024-01-25")
	mustTx(t, repo, u.ID, food.ID, core.Expense, 400, "2024-02-01")

	recent, err := repo.RecentTransactions(ctx, u.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 || recent[0].Date.String() != "2024-02-01" || recent[2].Date.String() != "2024-01-20" {
		t.Fatalf("unexpected recent %+v", recent)
	}

	jan, err := repo.FilterTransactions(ctx, u.ID, core.TransactionFilter{
		Type:     core.Expense,
		DateFrom: core.NewDate(2024, 1, 1),
		DateTo:   core.NewDate(2024, 1, 31),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(jan) != 3 {
		t.Fatalf("expected 3 January expenses, got %d", len(jan))
	}
	// Same-day rows keep insertion order.
	if jan[0].Amount.Cents != 300 || jan[1].ID != first.ID || jan[2].ID != second.ID {
		t.Fatalf("unexpected order %+v", jan)
	}
	for _, tx := range jan {
		if tx.Type != core.Expense || tx.Date.YearMonth() != "2024-01" || tx.CategoryName != "Food" {
			t.Fatalf("unexpected row %+v", tx)
		}
	}

	byCat, _ := repo.FilterTransactions(ctx, u.ID, core.TransactionFilter{CategoryID: salary.ID})
	if len(byCat) != 1 || byCat[0].Type != core.Income {
		t.Fatalf("unexpected category filter result %+v", byCat)
	}
}
