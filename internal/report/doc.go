// Package report writes lookup runs in different output formats.
//
// This package contains writers for:
//   - CSVWriter: The result table in the fixed column order, for spreadsheets
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: A shareable summary with a table of detections
//   - SimpleWriter: Human-readable text output for terminal display
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report
