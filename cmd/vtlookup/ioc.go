package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/vtlookup/internal/lookup"
	"github.com/nao1215/vtlookup/internal/model"
	"github.com/spf13/cobra"
)

// NewIOCCmd creates the ioc command.
func NewIOCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ioc <type> <observable>",
		Short: "Look up a single observable",
		Long: `IOC looks up one observable of a canonical type and prints its result rows.

Supported types: ipv4, dns, url, md5_hash, sha1_hash, sha256_hash.
Run 'vtlookup types' to see how each maps onto the service's API.

Examples:
  vtlookup ioc ipv4 8.8.8.8
  vtlookup ioc dns example.com -r text
  vtlookup ioc md5_hash 44d88612fea8a8f36de82e1278abb02f -r json`,
		Args: cobra.ExactArgs(2),
		RunE: runIOCCmd,
	}

	addServiceFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runIOCCmd executes the ioc command.
func runIOCCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
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

	session := lookup.NewSession(client, lookup.WithLogger(logger))
	typeName, observable := args[0], args[1]

	rows, err := session.LookupIOC(ctx, observable, typeName)
	if err != nil {
		return err
	}

	table := model.NewResultTable()
	table.Append(rows...)
	return writeRunReport(cmd, cfg, model.NewRun(session.ID(), observable, 1, table))
}
