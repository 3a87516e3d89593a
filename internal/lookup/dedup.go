package lookup

import (
	"fmt"
	"strings"

	"github.com/nao1215/vtlookup/internal/ioc"
	"github.com/nao1215/vtlookup/internal/model"
)

// DuplicateStatus is the outcome of a duplicate check.
type DuplicateStatus struct {
	// IsDuplicate is true when earlier results were found and cloned.
	IsDuplicate bool

	// Matched holds the source indices of the rows that were cloned.
	Matched []string
}

// String describes the status for logs.
func (d DuplicateStatus) String() string {
	if !d.IsDuplicate {
		return "ok"
	}
	return fmt.Sprintf("Duplicates of %v", d.Matched)
}

// checkDuplicate looks for earlier results for value. Matching rows are
// cloned for sourceIndex with Status Duplicate and Observable set to the
// caller's literal. The search and the append hold the table lock together.
func (s *Session) checkDuplicate(literal, value string, t ioc.Type, sourceIndex string) DuplicateStatus {
	var status DuplicateStatus

	s.table.AppendWith(func(existing []model.ResultRow) []model.ResultRow {
		matches := findDuplicates(existing, value, t)
		if len(matches) == 0 {
			return nil
		}

		clones := make([]model.ResultRow, len(matches))
		for i, m := range matches {
			status.Matched = append(status.Matched, m.SourceIndex)

			c := m.Clone()
			c.SourceIndex = sourceIndex
			c.Status = model.StatusDuplicate
			c.Observable = literal
			clones[i] = c
		}
		status.IsDuplicate = true
		return clones
	})

	return status
}

// findDuplicates returns the rows whose Observable equals value. For hash
// types with no such row, it falls back to the MD5, SHA1 and SHA256 columns,
// since any of the three identifies the same file. Hashes compare
// case-insensitively.
func findDuplicates(rows []model.ResultRow, value string, t ioc.Type) []model.ResultRow {
	equal := func(a, b string) bool { return a == b }
	if t.IsHash() {
		equal = strings.EqualFold
	}

	var matches []model.ResultRow
	for _, r := range rows {
		if equal(r.Observable, value) {
			matches = append(matches, r)
		}
	}
	if len(matches) > 0 || !t.IsHash() {
		return matches
	}

	for _, r := range rows {
		if equal(r.MD5, value) || equal(r.SHA1, value) || equal(r.SHA256, value) {
			matches = append(matches, r)
		}
	}
	return matches
}

// CheckDuplicate runs the duplicate check for one observable, as the batch
// path does before submitting it. On a match the clones are appended to the
// session's table. Values that fail validation are compared as given.
func (s *Session) CheckDuplicate(observable string, t ioc.Type, sourceIndex string) DuplicateStatus {
	value, err := s.sanitizer.Sanitize(observable, t)
	if err != nil {
		value = observable
	}
	return s.checkDuplicate(observable, value, t, sourceIndex)
}
