package memory

import (
	"context"
	"sync"

	"taxis/internal/core"
	"taxis/internal/sheets"
)

// Sheet keeps the last written rollup in memory. It stands in for a
// spreadsheet in tests and when no spreadsheet is configured.
type Sheet struct {
	mu     sync.Mutex
	rows   [][]any
	writes int
}

var _ sheets.RollupWriter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

// WriteGlobal replaces the stored rows with the rollup table.
func (s *Sheet) WriteGlobal(ctx context.Context, reports []core.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := sheets.RollupRows(reports)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.writes++
	return nil
}

// Rows returns a copy of the stored table, header first.
func (s *Sheet) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Writes returns how many times the rollup was written.
func (s *Sheet) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
