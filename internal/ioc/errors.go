package ioc

import "errors"

// Observable and type errors.
// Callers use errors.Is to distinguish configuration problems (an unknown
// type) from data problems (a malformed observable).
var (
	// ErrUnsupportedType is returned when a type name is not one of the
	// canonical types, or when a canonical type has no API descriptor.
	ErrUnsupportedType = errors.New("unsupported IoC type")

	// ErrInvalidObservable is returned when an observable value fails
	// validation. The wrapped message is the status text recorded for the row.
	ErrInvalidObservable = errors.New("invalid observable")
)
