// Package model defines the data structures shared across vtlookup.
//
// This package contains the following main types:
//   - InputRow: One observable to look up, as read from the caller's table
//   - ResultRow: One fixed-schema result record
//   - ResultTable: The append-only accumulator owned by a lookup session
//   - Summary: Per-status counts used by reports and the run archive
//
// Models live in their own package so that the lookup engine, the input
// reader, the report writers and the database can share them without
// import cycles. All of them serialize to JSON for reports and storage.
package model
