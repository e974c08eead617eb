package storage

import (
	"database/sql"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    sql.NullTime
}

type Category struct {
	ID          int64
	Name        string
	Description string
	UserID      int64
}

// TransactionRow is a transaction joined with its category name.
type TransactionRow struct {
	ID           int64
	Type         string
	AmountCents  int64
	CategoryID   int64
	CategoryName string
	Date         string
	Description  string
	UserID       int64
}

type CategoryTotal struct {
	Name        string
	TotalAmount int64
}

type MonthTotal struct {
	YearMonth   string
	TotalAmount int64
}

type CategoryCount struct {
	CategoryID int64
	Count      int64
}
