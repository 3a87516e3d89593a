package vtclient

import "errors"

var (
	// ErrNoAPIKey is returned by New when the API key is empty.
	ErrNoAPIKey = errors.New("reputation service API key is not set")

	// ErrInvalidProxyAddress is returned when the proxy address is not
	// "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrResponseTooLarge is returned when a response body exceeds the
	// configured maximum size.
	ErrResponseTooLarge = errors.New("response body too large")

	// ErrUnsupportedMethod is returned for descriptors whose HTTP verb is
	// neither GET nor POST.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
)
