package storage

import (
	"context"
)

const createUser = `INSERT INTO users (email, password_hash) VALUES (?, ?)`

func (q *Queries) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, createUser, email, passwordHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getUserByEmail = `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getUserByID = `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const updateUserPassword = `UPDATE users SET password_hash = ? WHERE id = ?`

func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listUserIDs = `SELECT id FROM users ORDER BY id`

func (q *Queries) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listUserIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

const createCategory = `INSERT INTO categories (name, description, user_id) VALUES (?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, name, description string, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, createCategory, name, description, userID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getCategory = `SELECT id, name, description, user_id FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.UserID)
	return i, err
}

const listCategoriesByUser = `SELECT id, name, description, user_id FROM categories
WHERE user_id = ?
ORDER BY name, id`

func (q *Queries) ListCategoriesByUser(ctx context.Context, userID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategoriesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.UserID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateCategory = `UPDATE categories SET name = ?, description = ? WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, id int64, name, description string) error {
	_, err := q.db.ExecContext(ctx, updateCategory, name, description, id)
	return err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, id)
	return err
}

const countTransactionsForCategory = `SELECT COUNT(*) FROM transactions WHERE category_id = ?`

func (q *Queries) CountTransactionsForCategory(ctx context.Context, categoryID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactionsForCategory, categoryID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countTransactionsByCategory = `SELECT category_id, COUNT(*) FROM transactions
WHERE user_id = ?
GROUP BY category_id`

func (q *Queries) CountTransactionsByCategory(ctx context.Context, userID int64) ([]CategoryCount, error) {
	rows, err := q.db.QueryContext(ctx, countTransactionsByCategory, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryCount
	for rows.Next() {
		var i CategoryCount
		if err := rows.Scan(&i.CategoryID, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateTransactionParams struct {
	Type        string
	AmountCents int64
	CategoryID  int64
	Date        string
	Description string
	UserID      int64
}

const createTransaction = `INSERT INTO transactions (type, amount_cents, category_id, date, description, user_id)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		arg.Type,
		arg.AmountCents,
		arg.CategoryID,
		arg.Date,
		arg.Description,
		arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type UpdateTransactionParams struct {
	ID          int64
	Type        string
	AmountCents int64
	CategoryID  int64
	Date        string
	Description string
}

const updateTransaction = `UPDATE transactions
SET type = ?, amount_cents = ?, category_id = ?, date = ?, description = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Type,
		arg.AmountCents,
		arg.CategoryID,
		arg.Date,
		arg.Description,
		arg.ID,
	)
	return err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

const transactionColumns = `SELECT t.id, t.type, t.amount_cents, t.category_id, c.name, t.date, t.description, t.user_id
FROM transactions t
JOIN categories c ON c.id = t.category_id`

const getTransaction = transactionColumns + `
WHERE t.id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i TransactionRow
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.AmountCents,
		&i.CategoryID,
		&i.CategoryName,
		&i.Date,
		&i.Description,
		&i.UserID,
	)
	return i, err
}

const listRecentTransactions = transactionColumns + `
WHERE t.user_id = ?
ORDER BY t.date DESC, t.id ASC
LIMIT ?`

func (q *Queries) ListRecentTransactions(ctx context.Context, userID int64, limit int64) ([]TransactionRow, error) {
	return q.listTransactions(ctx, listRecentTransactions, userID, limit)
}

type FilterTransactionsParams struct {
	UserID     int64
	Type       string
	CategoryID int64
	DateFrom   string
	DateTo     string
}

// Empty parameters disable their predicate.
const filterTransactions = transactionColumns + `
WHERE t.user_id = ?
  AND (? = '' OR t.type = ?)
  AND (? = 0 OR t.category_id = ?)
  AND (? = '' OR t.date >= ?)
  AND (? = '' OR t.date <= ?)
ORDER BY t.date DESC, t.id ASC`

func (q *Queries) FilterTransactions(ctx context.Context, arg FilterTransactionsParams) ([]TransactionRow, error) {
	return q.listTransactions(ctx, filterTransactions,
		arg.UserID,
		arg.Type, arg.Type,
		arg.CategoryID, arg.CategoryID,
		arg.DateFrom, arg.DateFrom,
		arg.DateTo, arg.DateTo,
	)
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.Type,
			&i.AmountCents,
			&i.CategoryID,
			&i.CategoryName,
			&i.Date,
			&i.Description,
			&i.UserID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// Date bounds are half-open: from <= date < to.
const sumByTypeBetween = `SELECT CAST(COALESCE(SUM(amount_cents), 0) AS INTEGER) FROM transactions
WHERE user_id = ? AND type = ? AND date >= ? AND date < ?`

func (q *Queries) SumByTypeBetween(ctx context.Context, userID int64, typ, from, to string) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumByTypeBetween, userID, typ, from, to)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const sumIncomeExpenseBetween = `SELECT
    CAST(COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents END), 0) AS INTEGER),
    CAST(COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents END), 0) AS INTEGER)
FROM transactions
WHERE user_id = ? AND date >= ? AND date < ?`

func (q *Queries) SumIncomeExpenseBetween(ctx context.Context, userID int64, from, to string) (income, expense int64, err error) {
	row := q.db.QueryRowContext(ctx, sumIncomeExpenseBetween, userID, from, to)
	err = row.Scan(&income, &expense)
	return income, expense, err
}

const expenseByCategoryBetween = `SELECT c.name, CAST(SUM(t.amount_cents) AS INTEGER) AS total_amount
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.user_id = ? AND t.type = 'expense' AND t.date >= ? AND t.date < ?
GROUP BY c.name
ORDER BY c.name`

func (q *Queries) ExpenseByCategoryBetween(ctx context.Context, userID int64, from, to string) ([]CategoryTotal, error) {
	rows, err := q.db.QueryContext(ctx, expenseByCategoryBetween, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryTotal
	for rows.Next() {
		var i CategoryTotal
		if err := rows.Scan(&i.Name, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const monthlyExpenseTotals = `SELECT substr(date, 1, 7) AS year_month, CAST(SUM(amount_cents) AS INTEGER) AS total_amount
FROM transactions
WHERE user_id = ? AND type = 'expense'
GROUP BY year_month
ORDER BY year_month`

func (q *Queries) MonthlyExpenseTotals(ctx context.Context, userID int64) ([]MonthTotal, error) {
	rows, err := q.db.QueryContext(ctx, monthlyExpenseTotals, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthTotal
	for rows.Next() {
		var i MonthTotal
		if err := rows.Scan(&i.YearMonth, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
