// Package memory is an in-process sheets.Writer used for dry runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"lifeboard/internal/sheets"
)

var _ sheets.Writer = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	writes int
}

func New() *Store {
	return &Store{sheets: make(map[string][][]any)}
}

func (s *Store) ReplaceRows(ctx context.Context, sheet string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet] = cp
	s.writes++
	return nil
}

// Rows returns the content of sheet.
func (s *Store) Rows(sheet string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	return rows, ok
}

// Sheets lists sheet names in order.
func (s *Store) Sheets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sheets))
	for name := range s.sheets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Writes counts ReplaceRows calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
