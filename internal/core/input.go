package core

import (
	"regexp"
	"strconv"
	"strings"
)

// Form inputs arrive as raw strings; each input type owns its parsing so
// handlers never cast fields themselves.

// TransactionInput is the create/edit transaction form.
type TransactionInput struct {
	Type        string
	Amount      string
	CategoryID  string
	Date        string
	Description string
}

// TransactionDraft is a parsed transaction not yet bound to an owner or id.
type TransactionDraft struct {
	Type        TransactionType
	Amount      Money
	CategoryID  int64
	Date        Date
	Description string
}

// Parse validates every field and returns the first problem found.
func (in TransactionInput) Parse() (TransactionDraft, error) {
	typ, err := ParseTransactionType(in.Type)
	if err != nil {
		return TransactionDraft{}, err
	}
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return TransactionDraft{}, err
	}
	categoryID, err := parseID(in.CategoryID)
	if err != nil {
		return TransactionDraft{}, ErrInvalidCategoryID
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return TransactionDraft{}, err
	}
	draft := TransactionDraft{
		Type:        typ,
		Amount:      Money{Cents: cents},
		CategoryID:  categoryID,
		Date:        date,
		Description: singleLine(in.Description),
	}
	if err := draft.Transaction(0).Validate(); err != nil {
		return TransactionDraft{}, err
	}
	return draft, nil
}

// Transaction binds the draft to its owner.
func (d TransactionDraft) Transaction(userID int64) Transaction {
	return Transaction{
		Type:        d.Type,
		Amount:      d.Amount,
		CategoryID:  d.CategoryID,
		Date:        d.Date,
		Description: d.Description,
		UserID:      userID,
	}
}

// CategoryInput is the create/edit category form.
type CategoryInput struct {
	Name        string
	Description string
}

func (in CategoryInput) Parse() (Category, error) {
	c := Category{
		Name:        singleLine(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine folds line breaks into spaces. Category names and transaction
// descriptions are exported as CSV cells and must read back unchanged.
func singleLine(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// RegistrationInput is the sign-up form.
type RegistrationInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate returns the normalized email on success.
func (in RegistrationInput) Validate() (string, error) {
	email := strings.TrimSpace(in.Email)
	pwd := strings.TrimSpace(in.Password)
	confirm := strings.TrimSpace(in.ConfirmPassword)

	if email == "" || pwd == "" || confirm == "" {
		return "", &ValidationError{Field: "form", Reason: "all fields are required"}
	}
	if !emailPattern.MatchString(email) {
		return "", &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if err := validatePassword(pwd, confirm); err != nil {
		return "", err
	}
	return email, nil
}

// PasswordChangeInput is the settings form.
type PasswordChangeInput struct {
	Current         string
	Password        string
	ConfirmPassword string
}

func (in PasswordChangeInput) Validate() error {
	if strings.TrimSpace(in.Current) == "" {
		return &ValidationError{Field: "current_password", Reason: "is required"}
	}
	return validatePassword(strings.TrimSpace(in.Password), strings.TrimSpace(in.ConfirmPassword))
}

func validatePassword(pwd, confirm string) error {
	if len([]rune(pwd)) < minPasswordLen {
		return &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	if pwd != confirm {
		return &ValidationError{Field: "confirm_password", Reason: "does not match"}
	}
	return nil
}

// FilterInput is the query string of the transaction list.
type FilterInput struct {
	Type       string
	CategoryID string
	DateFrom   string
	DateTo     string
}

// Parse treats blank fields as absent.
func (in FilterInput) Parse() (TransactionFilter, error) {
	var f TransactionFilter
	var err error
	if v := strings.TrimSpace(in.Type); v != "" {
		if f.Type, err = ParseTransactionType(v); err != nil {
			return TransactionFilter{}, err
		}
	}
	if v := strings.TrimSpace(in.CategoryID); v != "" {
		if f.CategoryID, err = parseID(v); err != nil {
			return TransactionFilter{}, ErrInvalidCategoryID
		}
	}
	if v := strings.TrimSpace(in.DateFrom); v != "" {
		if f.DateFrom, err = ParseDate(v); err != nil {
			return TransactionFilter{}, &ValidationError{Field: "date_from", Reason: "must be a valid YYYY-MM-DD date"}
		}
	}
	if v := strings.TrimSpace(in.DateTo); v != "" {
		if f.DateTo, err = ParseDate(v); err != nil {
			return TransactionFilter{}, &ValidationError{Field: "date_to", Reason: "must be a valid YYYY-MM-DD date"}
		}
	}
	return f, nil
}

// ParseID parses a positive integer path or form identifier.
func ParseID(s string) (int64, error) {
	id, err := parseID(s)
	if err != nil {
		return 0, ErrNotFound
	}
	return id, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidCategoryID
	}
	return id, nil
}
