package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

const (
	maxDescriptionLen         = 200
	maxCategoryNameLen        = 100
	maxCategoryDescriptionLen = 500
	minPasswordLen            = 6
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID          int64
		Name        string
		Description string
		UserID      int64
	}

	Transaction struct {
		ID           int64
		Type         TransactionType
		Amount       Money
		CategoryID   int64
		CategoryName string // resolved at read time, never stored
		Date         Date
		Description  string
		UserID       int64
	}

	// Identity is the authenticated user acting in a request. Every service
	// operation receives it explicitly.
	Identity struct {
		UserID int64
		Email  string
	}
)

var (
	ErrInvalidDate         = &ValidationError{Field: "date", Reason: "must be a valid YYYY-MM-DD date"}
	ErrInvalidMonth        = &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	ErrInvalidAmount       = &ValidationError{Field: "amount", Reason: "must be a positive amount"}
	ErrInvalidType         = &ValidationError{Field: "type", Reason: "must be income or expense"}
	ErrDescriptionTooLong  = &ValidationError{Field: "description", Reason: "too long (max 200 characters)"}
	ErrInvalidCategoryID   = &ValidationError{Field: "category", Reason: "must reference a category"}
	ErrEmptyCategoryName   = &ValidationError{Field: "name", Reason: "cannot be empty"}
	ErrCategoryNameTooLong = &ValidationError{Field: "name", Reason: "too long (max 100 characters)"}
)

// Authenticated reports whether the identity names a user.
func (id Identity) Authenticated() bool {
	return id.UserID > 0
}

// ParseTransactionType accepts the two stored spellings only.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.TrimSpace(s)); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseDate parses a YYYY-MM-DD calendar date. time.Parse rejects
// impossible days such as 2024-02-30.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// YearMonth returns the YYYY-MM bucket the date falls in.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Signed returns the amount as it contributes to a balance.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.CategoryID <= 0 {
		return ErrInvalidCategoryID
	}
	if len([]rune(t.Description)) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if len([]rune(name)) > maxCategoryNameLen {
		return ErrCategoryNameTooLong
	}
	if len([]rune(c.Description)) > maxCategoryDescriptionLen {
		return &ValidationError{Field: "description", Reason: "too long (max 500 characters)"}
	}
	return nil
}

// MonthRange returns the half-open [first day, first day of next month) range
// for a calendar month as YYYY-MM-DD strings.
func MonthRange(year, month int) (from, to string, err error) {
	if month < 1 || month > 12 {
		return "", "", ErrInvalidMonth
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start.Format(DateLayout), start.AddDate(0, 1, 0).Format(DateLayout), nil
}
