// Package memory is an in-process StatementWriter for local runs and tests.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/report"
	"bilancio/internal/sheets"
)

var _ sheets.StatementWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	tabs   map[string][][]string
	writes int
}

func New() *Store {
	return &Store{tabs: make(map[string][][]string)}
}

// WriteStatement replaces the tab with the statement rows.
func (s *Store) WriteStatement(ctx context.Context, tab string, st report.Statement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := sheets.Rows(st)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tab] = rows
	s.writes++
	return nil
}

// Tab returns a copy of the tab contents and whether it exists.
func (s *Store) Tab(name string) ([][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[name]
	if !ok {
		return nil, false
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, true
}

// Writes counts WriteStatement calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
