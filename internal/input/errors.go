package input

import "errors"

var (
	// ErrMissingColumn is returned when a required column is not in the header.
	ErrMissingColumn = errors.New("missing column")

	// ErrUnknownFormat is returned for an unrecognized input format.
	ErrUnknownFormat = errors.New("unknown input format")

	// ErrNoHeader is returned when CSV or TSV input has no header row.
	ErrNoHeader = errors.New("input has no header row")
)
