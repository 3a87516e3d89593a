// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The reputation service authenticates every request with an API key that
// travels as a query or form parameter. The SecureHandler keeps that key out
// of log output:
//   - Attributes whose key names a credential (apikey, x-apikey, token, ...)
//   - apikey= parameters embedded in URLs and error strings
//   - Bearer and Basic authorization values, JWTs and AWS access keys
//
// Long hexadecimal strings are NOT treated as secrets: file hashes are the
// observables vtlookup exists to report on, and masking them would make the
// logs useless.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("sending request", "url", "https://host/file/report?apikey=abc&resource=...")
//	// url=https://host/file/report?apikey=***REDACTED***&resource=...
//
//	slog.SetDefault(logger)
package log
