// Package input reads observable rows from tabular files.
//
// CSV and TSV files are read by header name; JSON lines files hold one object
// per line. Column names are configurable. Input may carry a UTF-8 or UTF-16
// byte order mark, as spreadsheet exports often do.
package input
