// Package database archives lookup runs in SQLite.
//
// The archive stores each run's metadata and result rows so that earlier
// lookups can be listed, printed again and searched by observable. It is
// written after a run finishes and read only by the history command; lookup
// sessions never consult it.
//
// modernc.org/sqlite is a pure Go driver, so the binary stays CGO-free.
package database
