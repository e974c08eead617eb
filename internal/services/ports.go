package services

import (
	"context"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

// Store ports implemented by storage.SQLiteRepository. Ownership checks that
// must be atomic with a write live behind these methods.

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	Category(ctx context.Context, id int64) (core.Category, error)
	Categories(ctx context.Context, userID int64) ([]core.Category, error)
	UpdateCategory(ctx context.Context, actorID int64, c core.Category) error
	DeleteCategory(ctx context.Context, actorID, id int64) error
	CountTransactionsForCategory(ctx context.Context, categoryID int64) (int64, error)
	TransactionCountsByCategory(ctx context.Context, userID int64) (map[int64]int64, error)
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Transaction(ctx context.Context, id int64) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, actorID int64, t core.Transaction) error
	DeleteTransaction(ctx context.Context, actorID, id int64) error
}

type AggregateStore interface {
	SumByType(ctx context.Context, userID int64, typ core.TransactionType, from, to string) (core.Money, error)
	IncomeExpense(ctx context.Context, userID int64, from, to string) (income, expense core.Money, err error)
	ExpenseByCategory(ctx context.Context, userID int64, from, to string) ([]core.CategoryAmount, error)
	MonthlyExpenseTotals(ctx context.Context, userID int64) ([]core.MonthTotal, error)
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
	FilterTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error)
}

// Publisher is satisfied by *amqp.Client.
type Publisher interface {
	PublishChange(ctx context.Context, ev *amqp.ChangeEvent) error
}
