package model

import "time"

// Run is one completed lookup over an input file, as reported and archived.
type Run struct {
	// ID is the lookup session ID.
	ID string `json:"id"`

	// CreatedAt is when the lookup finished.
	CreatedAt time.Time `json:"created_at"`

	// Source names the input, usually a file path.
	Source string `json:"source"`

	// InputRows is the number of rows read from the input.
	InputRows int `json:"input_rows"`

	// Summary holds the row counts.
	Summary Summary `json:"summary"`

	// Rows are the result rows in table order.
	Rows []ResultRow `json:"rows"`
}

// NewRun snapshots a result table into a Run.
func NewRun(id, source string, inputRows int, table *ResultTable) *Run {
	rows := table.Rows()
	return &Run{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Source:    source,
		InputRows: inputRows,
		Summary:   Summarize(rows),
		Rows:      rows,
	}
}

// DetectedRows returns the rows with at least one positive detection.
func (r *Run) DetectedRows() []ResultRow {
	var rows []ResultRow
	for _, row := range r.Rows {
		if row.Detected() {
			rows = append(rows, row)
		}
	}
	return rows
}
