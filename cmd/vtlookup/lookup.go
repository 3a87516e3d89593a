package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/vtlookup/internal/config"
	"github.com/nao1215/vtlookup/internal/database"
	"github.com/nao1215/vtlookup/internal/input"
	"github.com/nao1215/vtlookup/internal/lookup"
	"github.com/nao1215/vtlookup/internal/model"
	"github.com/spf13/cobra"
)

// NewLookupCmd creates the lookup command.
func NewLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <input-file>",
		Short: "Look up every observable in an input file",
		Long: `Lookup reads observables from a CSV, TSV or JSON lines file and looks them up
against the reputation service, one canonical type at a time.

Each input row needs an observable and a type label. By default the columns
are named Observable, IoCType and SourceIndex; SourceIndex is optional and
defaults to the row position. Type labels are the canonical type names
(ipv4, dns, url, md5_hash, sha1_hash, sha256_hash) unless aliases are set.

Rows whose observable fails validation are reported as "Failed: ..." and are
not submitted. Repeated observables are reported as duplicates of the first
result. A failed request marks every observable in its batch as failed; the
run continues with the next batch.

Examples:
  # Look up a CSV file and print the result table
  vtlookup lookup iocs.csv

  # Use the labels of an existing export
  vtlookup lookup export.csv --alias md5_hash=FileHash-MD5 --alias ipv4=IPv4

  # Markdown summary written to a file, and archive the run
  vtlookup lookup iocs.csv -r markdown -o report.md --save

  # Private API key: lift the request budget and run types in parallel
  vtlookup lookup iocs.jsonl --rpm 0 -n 4`,
		Args: cobra.ExactArgs(1),
		RunE: runLookupCmd,
	}

	addServiceFlags(cmd)
	addReportFlags(cmd)

	// Input flags
	cmd.Flags().StringP("format", "f", "",
		"Input format: csv, tsv or jsonl (default: guessed from the file extension)")
	cmd.Flags().String("observable-column", config.DefaultObservableColumn,
		"Name of the observable column")
	cmd.Flags().String("type-column", config.DefaultTypeColumn,
		"Name of the type label column")
	cmd.Flags().String("source-index-column", config.DefaultSourceIndexColumn,
		"Name of the source index column")
	cmd.Flags().StringToStringP("alias", "a", nil,
		"Type label used in the input for a canonical type (e.g., md5_hash=FileHash-MD5)")

	// Lookup behavior flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of canonical types looked up in parallel")

	// Archive flags
	cmd.Flags().BoolP("save", "s", false,
		"Save the run to the local archive (see 'vtlookup history')")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")

	return cmd
}

// runLookupCmd executes the lookup command.
func runLookupCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.InputFile = args[0]

	if err := cfg.ValidateBatch(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	return runLookup(ctx, cmd, cfg, lookup.NewSession(client,
		lookup.WithLogger(logger),
		lookup.WithConcurrency(cfg.Concurrency),
	), logger)
}

// runLookup reads the input, runs the session and writes the report.
// An interrupted run still reports and archives the rows produced so far.
func runLookup(ctx context.Context, cmd *cobra.Command, cfg *config.Config, session *lookup.Session, logger *slog.Logger) error {
	format, err := inputFormat(cfg.InputFormat)
	if err != nil {
		return err
	}

	rows, err := input.ReadFile(cfg.InputFile, format, input.Columns{
		Observable:  cfg.ObservableColumn,
		Type:        cfg.TypeColumn,
		SourceIndex: cfg.SourceIndexColumn,
	})
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Looking up %d rows from %s (run %s)...\n", len(rows), cfg.InputFile, session.ID())
	startTime := time.Now()

	table, lookupErr := session.LookupIOCs(ctx, rows, cfg.TypeAliases)
	if lookupErr != nil && !errors.Is(lookupErr, context.Canceled) {
		return lookupErr
	}

	run := model.NewRun(session.ID(), cfg.InputFile, len(rows), table)
	fmt.Fprintf(stderr, "Lookup completed in %s: %d results, %d detected\n",
		time.Since(startTime).Round(time.Millisecond), run.Summary.Total, run.Summary.Detected)

	if err := writeRunReport(cmd, cfg, run); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg, run, logger); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Run saved to archive: %s\n", run.ID)
	}

	return lookupErr
}

// inputFormat parses the configured input format. Empty means guess.
func inputFormat(name string) (input.Format, error) {
	if name == "" {
		return "", nil
	}
	return input.ParseFormat(name)
}

// writeRunReport writes the run in the configured format and destination.
func writeRunReport(cmd *cobra.Command, cfg *config.Config, run *model.Run) (err error) {
	out, closeOut, err := openReportOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()

	w, err := newReportWriter(cfg, out)
	if err != nil {
		return err
	}
	if _, err := w.Write(run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// saveRun stores the run in the archive.
// The save is not cancelled with the lookup so an interrupted run is kept.
func saveRun(ctx context.Context, cfg *config.Config, run *model.Run, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to database", "run", run.ID, "path", db.Path())
	return nil
}
