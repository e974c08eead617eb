package memory

import (
	"context"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/report"
)

func TestWriteStatementReplacesTab(t *testing.T) {
	s := New()
	ctx := context.Background()
	d, _ := core.ParseDate("2024-01-10")

	first := report.BuildStatement([]core.Transaction{
		{ID: 1, Type: core.Expense, Amount: core.Money{Cents: 700}, CategoryName: "Food", Date: d},
		{ID: 2, Type: core.Expense, Amount: core.Money{Cents: 300}, CategoryName: "Food", Date: d},
	})
	if err := s.WriteStatement(ctx, "user-1", first); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteStatement(ctx, "user-1", report.BuildStatement(nil)); err != nil {
		t.Fatal(err)
	}

	rows, ok := s.Tab("user-1")
	if !ok {
		t.Fatal("tab missing")
	}
	if len(rows) != 5 {
		t.Fatalf("expected header, blank and totals only, got %v", rows)
	}
	if s.Writes() != 2 {
		t.Fatalf("expected 2 writes, got %d", s.Writes())
	}
	if _, ok := s.Tab("user-2"); ok {
		t.Fatal("unexpected tab")
	}

	rows[0][0] = "mutated"
	again, _ := s.Tab("user-1")
	if again[0][0] != "Date" {
		t.Fatal("Tab returned shared storage")
	}
}

func TestWriteStatementHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().WriteStatement(ctx, "user-1", report.BuildStatement(nil)); err == nil {
		t.Fatal("expected context error")
	}
}
