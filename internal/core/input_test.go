package core

import (
	"errors"
	"testing"
)

func TestTransactionInputParse(t *testing.T) {
	in := TransactionInput{
		Type:        "expense",
		Amount:      "45,50",
		CategoryID:  "3",
		Date:        "2024-03-10",
		Description: "  groceries ",
	}
	d, err := in.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Type != Expense || d.Amount.Cents != 4550 || d.CategoryID != 3 || d.Description != "groceries" {
		t.Fatalf("unexpected draft %+v", d)
	}
	tx := d.Transaction(7)
	if tx.UserID != 7 || tx.Date.String() != "2024-03-10" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	for raw, want := range map[string]string{
		"line one\r\nline two": "line one line two",
		"a\rb":                 "a b",
		"a\nb\n":               "a b",
	} {
		in.Description = raw
		d, err := in.Parse()
		if err != nil || d.Description != want {
			t.Fatalf("description %q: got %q, %v", raw, d.Description, err)
		}
	}

	bads := map[string]TransactionInput{
		"type":     {Type: "gift", Amount: "1", CategoryID: "1", Date: "2024-01-01"},
		"amount":   {Type: "income", Amount: "-3", CategoryID: "1", Date: "2024-01-01"},
		"category": {Type: "income", Amount: "1", CategoryID: "x", Date: "2024-01-01"},
		"date":     {Type: "income", Amount: "1", CategoryID: "1", Date: "2024-02-30"},
	}
	for name, bad := range bads {
		_, err := bad.Parse()
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != name {
			t.Fatalf("%s: expected validation error on %s, got %v", name, name, err)
		}
	}
}

func TestRegistrationInputValidate(t *testing.T) {
	email, err := RegistrationInput{Email: " a@b.io ", Password: "secret", ConfirmPassword: "secret"}.Validate()
	if err != nil || email != "a@b.io" {
		t.Fatalf("expected a@b.io, got %q (%v)", email, err)
	}

	cases := []struct {
		name  string
		in    RegistrationInput
		field string
	}{
		{"missing", RegistrationInput{Email: "a@b.io", Password: "secret"}, "form"},
		{"email", RegistrationInput{Email: "not-an-email", Password: "secret", ConfirmPassword: "secret"}, "email"},
		{"short", RegistrationInput{Email: "a@b.io", Password: "abc", ConfirmPassword: "abc"}, "password"},
		{"mismatch", RegistrationInput{Email: "a@b.io", Password: "secret", ConfirmPassword: "secreT"}, "confirm_password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.in.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected error on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestPasswordChangeInputValidate(t *testing.T) {
	if err := (PasswordChangeInput{Current: "old", Password: "newpass", ConfirmPassword: "newpass"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (PasswordChangeInput{Password: "newpass", ConfirmPassword: "newpass"}).Validate(); err == nil {
		t.Fatal("expected error for missing current password")
	}
}

func TestFilterInputParse(t *testing.T) {
	f, err := FilterInput{}.Parse()
	if err != nil || !f.Empty() {
		t.Fatalf("expected empty filter, got %+v (%v)", f, err)
	}
	f, err = FilterInput{Type: "expense", CategoryID: "2", DateFrom: "2024-01-01", DateTo: "2024-01-31"}.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type != Expense || f.CategoryID != 2 || f.DateFrom.String() != "2024-01-01" || f.DateTo.String() != "2024-01-31" {
		t.Fatalf("unexpected filter %+v", f)
	}
	if _, err := (FilterInput{DateFrom: "yesterday"}).Parse(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("42"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	for _, bad := range []string{"", "0", "-1", "abc"} {
		if _, err := ParseID(bad); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%q: expected ErrNotFound, got %v", bad, err)
		}
	}
}
