package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/vtlookup/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "vtlookup.db"

// timeLayout is how run times are stored. It sorts lexically.
const timeLayout = "2006-01-02 15:04:05"

// RunDB stores lookup runs.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per lookup run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		input_rows INTEGER NOT NULL DEFAULT 0,
		summary TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	-- Result rows in table order; row_json holds the full record
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		observable TEXT NOT NULL,
		ioc_type TEXT NOT NULL,
		status TEXT NOT NULL,
		source_index TEXT NOT NULL,
		positives INTEGER,
		row_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id, position);
	CREATE INDEX IF NOT EXISTS idx_results_observable ON results(observable COLLATE NOCASE);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a run and its rows in one transaction.
func (rdb *RunDB) SaveRun(ctx context.Context, run *model.Run) (err error) {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, source, created_at, input_rows, summary)
	VALUES (?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Source,
		run.CreatedAt.UTC().Format(timeLayout),
		run.InputRows,
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO results (run_id, position, observable, ioc_type, status, source_index, positives, row_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range run.Rows {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to serialize row %d: %w", i, err)
		}

		var positives sql.NullInt64
		if row.Positives != nil {
			positives = sql.NullInt64{Int64: int64(*row.Positives), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			run.ID,
			i,
			row.Observable,
			row.IoCType,
			row.Status,
			row.SourceIndex,
			positives,
			string(rowJSON),
		); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RunMetadata describes a stored run without its rows.
type RunMetadata struct {
	// ID is the run (session) ID.
	ID string

	// Source names the input.
	Source string

	// CreatedAt is when the run finished, to the second.
	CreatedAt time.Time

	// InputRows is the number of input rows.
	InputRows int

	// Summary holds the row counts.
	Summary model.Summary
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, source, created_at, input_rows, summary
	FROM runs
	ORDER BY created_at DESC, rowid DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, meta)
	}

	return results, rows.Err()
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(s scanner) (RunMetadata, error) {
	var (
		meta        RunMetadata
		createdAt   string
		summaryJSON string
	)

	if err := s.Scan(&meta.ID, &meta.Source, &createdAt, &meta.InputRows, &summaryJSON); err != nil {
		return RunMetadata{}, fmt.Errorf("failed to scan run: %w", err)
	}

	meta.CreatedAt = parseTimestamp(createdAt)
	if err := json.Unmarshal([]byte(summaryJSON), &meta.Summary); err != nil {
		return RunMetadata{}, fmt.Errorf("failed to parse summary of run %s: %w", meta.ID, err)
	}

	return meta, nil
}

// GetRun returns a stored run with its rows. id may be a unique prefix of the
// run ID. It returns nil, nil when no run matches.
func (rdb *RunDB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	meta, err := rdb.findRun(ctx, id)
	if err != nil || meta == nil {
		return nil, err
	}

	rows, err := rdb.db.QueryContext(ctx, `
	SELECT row_json FROM results
	WHERE run_id = ?
	ORDER BY position
	`, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run rows: %w", err)
	}
	defer rows.Close()

	run := &model.Run{
		ID:        meta.ID,
		Source:    meta.Source,
		CreatedAt: meta.CreatedAt,
		InputRows: meta.InputRows,
		Summary:   meta.Summary,
		Rows:      make([]model.ResultRow, 0),
	}

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		run.Rows = append(run.Rows, row)
	}

	return run, rows.Err()
}

// findRun resolves an ID or ID prefix.
func (rdb *RunDB) findRun(ctx context.Context, id string) (*RunMetadata, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	rows, err := rdb.db.QueryContext(ctx, `
	SELECT id, source, created_at, input_rows, summary
	FROM runs
	WHERE id = ? OR substr(id, 1, length(?)) = ?
	ORDER BY id = ? DESC
	LIMIT 2
	`, id, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	defer rows.Close()

	var found []RunMetadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, nil
	case found[0].ID == id || len(found) == 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousRunID, id)
	}
}

func scanRow(s scanner) (model.ResultRow, error) {
	var rowJSON string
	if err := s.Scan(&rowJSON); err != nil {
		return model.ResultRow{}, fmt.Errorf("failed to scan row: %w", err)
	}

	var row model.ResultRow
	if err := json.Unmarshal([]byte(rowJSON), &row); err != nil {
		return model.ResultRow{}, fmt.Errorf("failed to parse row: %w", err)
	}
	return row, nil
}

// ArchivedRow is a stored result row with the run it belongs to.
type ArchivedRow struct {
	RunID     string
	CreatedAt time.Time
	Row       model.ResultRow
}

// SearchObservable returns archived rows whose observable equals value,
// ignoring case, newest run first.
func (rdb *RunDB) SearchObservable(ctx context.Context, value string) ([]ArchivedRow, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT r.run_id, runs.created_at, r.row_json
	FROM results r
	JOIN runs ON runs.id = r.run_id
	WHERE r.observable = ? COLLATE NOCASE
	ORDER BY runs.created_at DESC, r.position
	`, strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("failed to search observable: %w", err)
	}
	defer rows.Close()

	var results []ArchivedRow
	for rows.Next() {
		var (
			ar        ArchivedRow
			createdAt string
			rowJSON   string
		)
		if err := rows.Scan(&ar.RunID, &createdAt, &rowJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ar.CreatedAt = parseTimestamp(createdAt)
		if err := json.Unmarshal([]byte(rowJSON), &ar.Row); err != nil {
			return nil, fmt.Errorf("failed to parse row: %w", err)
		}
		results = append(results, ar)
	}

	return results, rows.Err()
}

// DeleteRun removes a run and its rows. It reports whether a run was deleted.
func (rdb *RunDB) DeleteRun(ctx context.Context, id string) (deleted bool, err error) {
	meta, err := rdb.findRun(ctx, id)
	if err != nil || meta == nil {
		return false, err
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM results WHERE run_id = ?", meta.ID); err != nil {
		return false, fmt.Errorf("failed to delete rows: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", meta.ID); err != nil {
		return false, fmt.Errorf("failed to delete run: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return true, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp as UTC, returning the zero time
// if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// IsNotFound reports whether err means the database file is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDatabaseNotFound)
}
