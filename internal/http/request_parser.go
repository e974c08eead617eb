// Package http provides HTTP server and handler implementations.
//
// This file turns request forms, query strings and path values into the
// typed inputs of the core package. Handlers never cast fields themselves.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// Prev returns the calendar month before p.
func (p MonthParams) Prev() MonthParams {
	if p.Month == 1 {
		return MonthParams{Year: p.Year - 1, Month: 12}
	}
	return MonthParams{Year: p.Year, Month: p.Month - 1}
}

// Next returns the calendar month after p.
func (p MonthParams) Next() MonthParams {
	if p.Month == 12 {
		return MonthParams{Year: p.Year + 1, Month: 1}
	}
	return MonthParams{Year: p.Year, Month: p.Month + 1}
}

// Name is the English month name, e.g. "March".
func (p MonthParams) Name() string {
	return time.Month(p.Month).String()
}

// ParseMonthParams extracts year and month from query parameters, using now as
// the default. Values that do not name a calendar month are ignored.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1 && y <= 9999 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}

// parseForm parses the request body; a malformed body is a validation problem
// rather than a server failure.
func parseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return &core.ValidationError{Field: "form", Reason: "could not be read"}
	}
	return nil
}

func formValue(r *http.Request, key string) string {
	return sanitizeInput(r.PostForm.Get(key))
}

func transactionInput(r *http.Request) core.TransactionInput {
	return core.TransactionInput{
		Type:        formValue(r, "type"),
		Amount:      formValue(r, "amount"),
		CategoryID:  formValue(r, "category"),
		Date:        formValue(r, "date"),
		Description: formValue(r, "description"),
	}
}

func categoryInput(r *http.Request) core.CategoryInput {
	return core.CategoryInput{
		Name:        formValue(r, "name"),
		Description: formValue(r, "description"),
	}
}

// Passwords are taken verbatim apart from trimming, which the core rules apply.
func registrationInput(r *http.Request) core.RegistrationInput {
	return core.RegistrationInput{
		Email:           formValue(r, "email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}
}

func passwordChangeInput(r *http.Request) core.PasswordChangeInput {
	return core.PasswordChangeInput{
		Current:         r.PostForm.Get("current_password"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}
}

// filterInput reads the transaction list filters from a query string.
func filterInput(query url.Values) core.FilterInput {
	return core.FilterInput{
		Type:       sanitizeInput(query.Get("type")),
		CategoryID: sanitizeInput(query.Get("category")),
		DateFrom:   sanitizeInput(query.Get("date_from")),
		DateTo:     sanitizeInput(query.Get("date_to")),
	}
}

// pathID reads a positive integer path value; anything else is ErrNotFound.
func pathID(r *http.Request, name string) (int64, error) {
	return core.ParseID(r.PathValue(name))
}

// localPath accepts only same-site absolute paths, falling back otherwise.
func localPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
