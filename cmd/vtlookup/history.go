package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/vtlookup/internal/config"
	"github.com/nao1215/vtlookup/internal/database"
	"github.com/nao1215/vtlookup/internal/model"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is how many runs are listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command reads runs stored by 'vtlookup lookup --save'.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show archived lookup runs",
		Long: `History shows lookup runs saved with 'vtlookup lookup --save'.

Without arguments it lists recent runs, newest first. With a run ID (or a
unique prefix of one) it prints that run as a report. The archive is only
read by this command; lookups never consult it.

Examples:
  # List the 20 most recent runs
  vtlookup history

  # Print a run as Markdown
  vtlookup history 0b6e2f5a -r markdown

  # Find every archived result for an observable
  vtlookup history --search 44d88612fea8a8f36de82e1278abb02f

  # Remove a run from the archive
  vtlookup history --delete 0b6e2f5a`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Number of runs to list (0 lists all)")
	cmd.Flags().StringP("search", "s", "",
		"Find archived results for an observable")
	cmd.Flags().BoolP("delete", "d", false,
		"Delete the given run from the archive")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	search, err := cmd.Flags().GetString("search")
	if err != nil {
		return err
	}
	deleteRun, err := cmd.Flags().GetBool("delete")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	if deleteRun && len(args) == 0 {
		return errors.New("run ID is required with --delete (use 'vtlookup history' to list runs)")
	}
	if search != "" && len(args) > 0 {
		return errors.New("--search cannot be combined with a run ID")
	}

	// A missing archive means nothing was saved yet; do not create one.
	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		if database.IsNotFound(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "No archived runs found.")
			fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'vtlookup lookup --save <input-file>' to archive a run.")
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case deleteRun:
		return deleteArchivedRun(ctx, cmd.OutOrStdout(), db, args[0])
	case search != "":
		return searchArchive(ctx, cmd.OutOrStdout(), db, search)
	case len(args) == 1:
		return showRun(ctx, cmd, cfg, db, args[0])
	default:
		return listRuns(ctx, cmd.OutOrStdout(), db, limit)
	}
}

// listRuns prints recent runs, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.RunDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No archived runs found.")
		fmt.Fprintln(out, "\nUse 'vtlookup lookup --save <input-file>' to archive a run.")
		return nil
	}

	fmt.Fprintf(out, "Archived runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-7s  %-8s  %s\n", "ID", "Date", "Results", "Detected", "Source")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, meta := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-7d  %-8d  %s\n",
			meta.ID,
			meta.CreatedAt.Format("2006-01-02 15:04:05"),
			meta.Summary.Total,
			meta.Summary.Detected,
			meta.Source,
		)
	}
	fmt.Fprintln(out, "\nUse 'vtlookup history <run-id>' to print a run.")

	return nil
}

// showRun writes one archived run as a report.
func showRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, db *database.RunDB, id string) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", id)
	}
	return writeRunReport(cmd, cfg, run)
}

// searchArchive prints every archived row for an observable.
func searchArchive(ctx context.Context, out io.Writer, db *database.RunDB, value string) error {
	found, err := db.SearchObservable(ctx, value)
	if err != nil {
		return fmt.Errorf("failed to search archive: %w", err)
	}

	if len(found) == 0 {
		fmt.Fprintf(out, "No archived results for %s\n", value)
		return nil
	}

	fmt.Fprintf(out, "Archived results for %s (%d):\n\n", value, len(found))
	for _, a := range found {
		fmt.Fprintf(out, "  %s  %s  %-12s  %-10s  %s\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			shortRunID(a.RunID),
			a.Row.IoCType,
			positivesText(a.Row),
			a.Row.Status,
		)
	}

	return nil
}

// deleteArchivedRun removes a run by ID or unique prefix.
func deleteArchivedRun(ctx context.Context, out io.Writer, db *database.RunDB, id string) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", id)
	}

	if _, err := db.DeleteRun(ctx, run.ID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	fmt.Fprintf(out, "Deleted run %s (%d results)\n", run.ID, len(run.Rows))
	return nil
}

// shortRunID returns the first block of a run ID.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// positivesText formats a row's detection count.
func positivesText(row model.ResultRow) string {
	if row.Positives == nil {
		return "-"
	}
	return fmt.Sprintf("%d hits", *row.Positives)
}
