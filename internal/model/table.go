package model

import (
	"slices"
	"sync"
)

// ResultTable is the append-only result accumulator of one lookup session.
// Existing rows are never edited or removed; corrections are new rows with
// the same SourceIndex.
//
// All methods are safe for concurrent use. Each call to Append or AppendWith
// inserts its rows as one contiguous block.
type ResultTable struct {
	mu   sync.RWMutex
	rows []ResultRow
}

// NewResultTable creates an empty table.
func NewResultTable() *ResultTable {
	return &ResultTable{rows: make([]ResultRow, 0)}
}

// Append adds rows as one contiguous block.
func (t *ResultTable) Append(rows ...ResultRow) {
	if len(rows) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, rows...)
}

// AppendWith runs build against the current rows and appends whatever it
// returns, holding the write lock throughout. A check against the table and
// the append that depends on it therefore cannot interleave with another
// writer. build must not retain or modify the slice it receives.
// The appended rows are returned.
func (t *ResultTable) AppendWith(build func(existing []ResultRow) []ResultRow) []ResultRow {
	t.mu.Lock()
	defer t.mu.Unlock()

	added := build(t.rows)
	t.rows = append(t.rows, added...)
	return added
}

// Rows returns a copy of all rows in insertion order.
func (t *ResultTable) Rows() []ResultRow {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.rows)
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// BySourceIndex returns the rows recorded for one input row.
func (t *ResultTable) BySourceIndex(sourceIndex string) []ResultRow {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []ResultRow
	for _, r := range t.rows {
		if r.SourceIndex == sourceIndex {
			out = append(out, r)
		}
	}
	return out
}

// Summary counts the table's rows by status kind.
func (t *ResultTable) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Summarize(t.rows)
}
