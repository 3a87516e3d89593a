package model

// Summary holds row counts for a result table.
type Summary struct {
	Total     int `json:"total"`
	Success   int `json:"success"`
	Duplicate int `json:"duplicate"`
	Failure   int `json:"failure"`
	Invalid   int `json:"invalid"`

	// Detected counts success and duplicate rows with positives above zero.
	Detected int `json:"detected"`

	// Sources is the number of distinct source indices.
	Sources int `json:"sources"`
}

// Summarize counts rows by status kind.
func Summarize(rows []ResultRow) Summary {
	s := Summary{Total: len(rows)}
	sources := make(map[string]struct{}, len(rows))

	for _, r := range rows {
		sources[r.SourceIndex] = struct{}{}

		switch r.Kind() {
		case StatusKindSuccess:
			s.Success++
		case StatusKindDuplicate:
			s.Duplicate++
		case StatusKindFailure:
			s.Failure++
		case StatusKindInvalid:
			s.Invalid++
		}

		if r.Kind() <= StatusKindDuplicate && r.Detected() {
			s.Detected++
		}
	}

	s.Sources = len(sources)
	return s
}
