package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bilancio/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dsnOptions enables foreign keys on every pooled connection and makes write
// transactions take the lock up front so check-then-write is serialized.
const dsnOptions = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN returns the driver connection string for a database file.
func DSN(dbPath string) string {
	return dbPath + "?" + dsnOptions
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside one database transaction and commits on success.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash string) (core.User, error) {
	id, err := r.queries.CreateUser(ctx, email, passwordHash)
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE") {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return core.User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, notFound(err, "get user by email")
	}
	return toCoreUser(u), nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (core.User, error) {
	u, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return core.User{}, notFound(err, "get user by id")
	}
	return toCoreUser(u), nil
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	n, err := r.queries.UpdateUserPassword(ctx, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListUserIDs returns every registered user, used by the mirror resync.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids, err := r.queries.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

// Categories

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	id, err := r.queries.CreateCategory(ctx, c.Name, c.Description, c.UserID)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *SQLiteRepository) Category(ctx context.Context, id int64) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, notFound(err, "get category")
	}
	return toCoreCategory(c), nil
}

func (r *SQLiteRepository) Categories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.queries.ListCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, c := range rows {
		out[i] = toCoreCategory(c)
	}
	return out, nil
}

// UpdateCategory renames a category owned by actorID.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, actorID int64, c core.Category) error {
	return r.withTx(ctx, func(q *Queries) error {
		if _, err := ownedCategory(ctx, q, actorID, c.ID); err != nil {
			return err
		}
		if err := q.UpdateCategory(ctx, c.ID, c.Name, c.Description); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	})
}

// DeleteCategory removes a category owned by actorID that no transaction references.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, actorID, id int64) error {
	return r.withTx(ctx, func(q *Queries) error {
		if _, err := ownedCategory(ctx, q, actorID, id); err != nil {
			return err
		}
		n, err := q.CountTransactionsForCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("count category transactions: %w", err)
		}
		if n > 0 {
			return core.ErrCategoryInUse
		}
		if err := q.DeleteCategory(ctx, id); err != nil {
			if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY") {
				return core.ErrCategoryInUse
			}
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) CountTransactionsForCategory(ctx context.Context, categoryID int64) (int64, error) {
	n, err := r.queries.CountTransactionsForCategory(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}

// TransactionCountsByCategory maps each of the user's categories that has
// transactions to how many reference it.
func (r *SQLiteRepository) TransactionCountsByCategory(ctx context.Context, userID int64) (map[int64]int64, error) {
	rows, err := r.queries.CountTransactionsByCategory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count transactions by category: %w", err)
	}
	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	return counts, nil
}

func ownedCategory(ctx context.Context, q *Queries, actorID, id int64) (Category, error) {
	c, err := q.GetCategory(ctx, id)
	if err != nil {
		return Category{}, notFound(err, "get category")
	}
	if c.UserID != actorID {
		return Category{}, core.ErrForbidden
	}
	return c, nil
}

// Transactions

// CreateTransaction stores t after checking its category belongs to t.UserID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	err := r.withTx(ctx, func(q *Queries) error {
		name, err := referencedCategory(ctx, q, t.UserID, t.CategoryID)
		if err != nil {
			return err
		}
		id, err := q.CreateTransaction(ctx, CreateTransactionParams{
			Type:        string(t.Type),
			AmountCents: t.Amount.Cents,
			CategoryID:  t.CategoryID,
			Date:        t.Date.String(),
			Description: t.Description,
			UserID:      t.UserID,
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		t.ID = id
		t.CategoryName = name
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// UpdateTransaction overwrites a transaction owned by actorID. t.UserID is ignored.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, actorID int64, t core.Transaction) error {
	return r.withTx(ctx, func(q *Queries) error {
		if _, err := ownedTransaction(ctx, q, actorID, t.ID); err != nil {
			return err
		}
		if _, err := referencedCategory(ctx, q, actorID, t.CategoryID); err != nil {
			return err
		}
		err := q.UpdateTransaction(ctx, UpdateTransactionParams{
			ID:          t.ID,
			Type:        string(t.Type),
			AmountCents: t.Amount.Cents,
			CategoryID:  t.CategoryID,
			Date:        t.Date.String(),
			Description: t.Description,
		})
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, actorID, id int64) error {
	return r.withTx(ctx, func(q *Queries) error {
		if _, err := ownedTransaction(ctx, q, actorID, id); err != nil {
			return err
		}
		if err := q.DeleteTransaction(ctx, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) Transaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction")
	}
	return toCoreTransaction(row)
}

func ownedTransaction(ctx context.Context, q *Queries, actorID, id int64) (TransactionRow, error) {
	row, err := q.GetTransaction(ctx, id)
	if err != nil {
		return TransactionRow{}, notFound(err, "get transaction")
	}
	if row.UserID != actorID {
		return TransactionRow{}, core.ErrForbidden
	}
	return row, nil
}

// referencedCategory resolves the category name, or ErrInvalidReference when
// the category is missing or owned by someone else.
func referencedCategory(ctx context.Context, q *Queries, userID, categoryID int64) (string, error) {
	c, err := q.GetCategory(ctx, categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrInvalidReference
	}
	if err != nil {
		return "", fmt.Errorf("get category: %w", err)
	}
	if c.UserID != userID {
		return "", core.ErrInvalidReference
	}
	return c.Name, nil
}

// Aggregates

func (r *SQLiteRepository) SumByType(ctx context.Context, userID int64, typ core.TransactionType, from, to string) (core.Money, error) {
	total, err := r.queries.SumByTypeBetween(ctx, userID, string(typ), from, to)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum %s: %w", typ, err)
	}
	return core.Money{Cents: total}, nil
}

func (r *SQLiteRepository) IncomeExpense(ctx context.Context, userID int64, from, to string) (income, expense core.Money, err error) {
	in, out, err := r.queries.SumIncomeExpenseBetween(ctx, userID, from, to)
	if err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("sum income and expense: %w", err)
	}
	return core.Money{Cents: in}, core.Money{Cents: out}, nil
}

func (r *SQLiteRepository) ExpenseByCategory(ctx context.Context, userID int64, from, to string) ([]core.CategoryAmount, error) {
	rows, err := r.queries.ExpenseByCategoryBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("expense by category: %w", err)
	}
	out := make([]core.CategoryAmount, 0, len(rows))
	for _, row := range rows {
		if row.TotalAmount == 0 {
			continue
		}
		out = append(out, core.CategoryAmount{Name: row.Name, Amount: core.Money{Cents: row.TotalAmount}})
	}
	return out, nil
}

func (r *SQLiteRepository) MonthlyExpenseTotals(ctx context.Context, userID int64) ([]core.MonthTotal, error) {
	rows, err := r.queries.MonthlyExpenseTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("monthly expense totals: %w", err)
	}
	out := make([]core.MonthTotal, len(rows))
	for i, row := range rows {
		out[i] = core.MonthTotal{YearMonth: row.YearMonth, Total: core.Money{Cents: row.TotalAmount}}
	}
	return out, nil
}

func (r *SQLiteRepository) RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.ListRecentTransactions(ctx, userID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return toCoreTransactions(rows)
}

func (r *SQLiteRepository) FilterTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	rows, err := r.queries.FilterTransactions(ctx, FilterTransactionsParams{
		UserID:     userID,
		Type:       string(f.Type),
		CategoryID: f.CategoryID,
		DateFrom:   f.DateFrom.String(),
		DateTo:     f.DateTo.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("filter transactions: %w", err)
	}
	return toCoreTransactions(rows)
}

// Conversions

func toCoreUser(u User) core.User {
	return core.User{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt.Time}
}

func toCoreCategory(c Category) core.Category {
	return core.Category{ID: c.ID, Name: c.Name, Description: c.Description, UserID: c.UserID}
}

func toCoreTransaction(row TransactionRow) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d has malformed date %q", row.ID, row.Date)
	}
	return core.Transaction{
		ID:           row.ID,
		Type:         core.TransactionType(row.Type),
		Amount:       core.Money{Cents: row.AmountCents},
		CategoryID:   row.CategoryID,
		CategoryName: row.CategoryName,
		Date:         date,
		Description:  row.Description,
		UserID:       row.UserID,
	}, nil
}

func toCoreTransactions(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCoreTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Errors

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isConstraint matches the extended result code, falling back to the message
// for connections that report only the primary code.
func isConstraint(err error, code int, marker string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == code {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), marker)
}
