package memory

import (
	"context"
	"sync"

	"splitledger/internal/sheets"
)

var _ sheets.Store = (*Store)(nil)

// Store keeps sheet contents in process memory.
type Store struct {
	mu     sync.Mutex
	rows   [][]string
	events [][]string
}

func New() *Store {
	return &Store{}
}

// ReplaceRows overwrites the ledger sheet.
func (s *Store) ReplaceRows(_ context.Context, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = copyRows(rows)
	return nil
}

// ReadRows returns a copy of the ledger sheet.
func (s *Store) ReadRows(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.rows), nil
}

func (s *Store) AppendEvents(_ context.Context, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, copyRows(rows)...)
	return nil
}

// Events returns every appended activity row.
func (s *Store) Events() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.events)
}

func copyRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}
