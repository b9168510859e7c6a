// Package memory is an in-process spreadsheet mirror used when no Google
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "giftbook/internal/sheets"
)

var (
	_ ports.ChangeLogWriter = (*Store)(nil)
	_ ports.LedgerWriter    = (*Store)(nil)
)

type Store struct {
	mu      sync.Mutex
	changes []ports.ChangeRow
	header  []string
	rows    [][]string
	failErr error
}

func New() *Store {
	return &Store{}
}

// FailWith makes every subsequent write return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// AppendChange stores the row and returns a synthetic row reference.
func (s *Store) AppendChange(_ context.Context, row ports.ChangeRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	s.changes = append(s.changes, row)
	return fmt.Sprintf("mem:%d", len(s.changes)), nil
}

// ReplaceLedger keeps a copy of the last exported ledger.
func (s *Store) ReplaceLedger(_ context.Context, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.header = append([]string(nil), header...)
	s.rows = make([][]string, len(rows))
	for i, r := range rows {
		s.rows[i] = append([]string(nil), r...)
	}
	return nil
}

// Changes returns the appended change rows in order.
func (s *Store) Changes() []ports.ChangeRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ChangeRow(nil), s.changes...)
}

// Ledger returns the last exported header and rows.
func (s *Store) Ledger() ([]string, [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.header...), append([][]string(nil), s.rows...)
}
