// Package lookup implements the batched lookup engine.
//
// A Session takes rows of observables, validates them, skips values it has
// already resolved, groups the rest into per-type batches bounded by the
// registry's batch size, submits each batch through a Gateway, and maps the
// service's responses back to the rows they came from. Every outcome is
// recorded in the session's append-only result table:
//
//	input rows -> Sanitizer -> duplicate check -> batch -> Gateway -> correlate -> table
//
// The engine does not retry failed submissions, does not throttle outgoing
// requests (that is the Gateway's job), and keeps results only for the life
// of the Session.
//
// # Correlation
//
// Batched responses may not preserve request order. When a response element
// carries a "resource" field naming one of the submitted values, the element
// is attributed to that value's row. Otherwise elements are matched to the
// submitted values by position. If a batch holds the same literal value twice
// and the response has no "resource" field, positional matching cannot tell
// the two rows apart and both results are attributed to the row recorded
// last for that value.
//
// # Concurrency
//
// By default canonical types are processed one after another and each batch
// is built, submitted and parsed before the next starts. WithConcurrency lets
// independent types run in parallel; each batch's rows are still appended as
// one contiguous block, and a duplicate check and the rows it appends happen
// under a single lock on the table. A file hash is also recognized as a
// duplicate of an earlier report of another hash kind only once that report
// is in the table, so catching the same file submitted as md5, sha1 and
// sha256 in one run needs the sequential default.
package lookup
