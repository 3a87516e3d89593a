package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users get a readable message.
var (
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("no API key: set VTLOOKUP_API_KEY (or VT_API_KEY), use a .env file, or pass --api-key")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRequestsPerMinute is returned when the request budget is negative.
	// Use 0 to disable the budget.
	ErrInvalidRequestsPerMinute = errors.New("invalid requests per minute: must be non-negative")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidReportFormat is returned for an unknown report format.
	ErrInvalidReportFormat = errors.New("invalid report format: must be csv, json, markdown or text")

	// ErrNoInput is returned when no input file is given for a batch lookup.
	ErrNoInput = errors.New("no input specified: provide an input file")
)
