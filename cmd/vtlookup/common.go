package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/vtlookup/internal/config"
	vtlog "github.com/nao1215/vtlookup/internal/log"
	"github.com/nao1215/vtlookup/internal/report"
	"github.com/nao1215/vtlookup/internal/vtclient"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addServiceFlags registers the flags shared by commands that talk to the
// reputation service.
func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().String("api-key", "",
		"API key (default: $VTLOOKUP_API_KEY or $VT_API_KEY)")
	cmd.Flags().String("api-url", config.DefaultAPIURL,
		"API root URL")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int("rpm", config.DefaultRequestsPerMinute,
		"Requests per minute (0 disables throttling)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
}

// addReportFlags registers the report output flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("report", "r", config.DefaultReportFormat,
		"Report format: csv, json, markdown or text")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig builds a Config from defaults, the configuration file, the
// environment and the flags that were set on cmd, in increasing priority.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	// config and env-file are root flags; they are absent when a subcommand
	// runs on its own.
	if f := cmd.Flags().Lookup("config"); f != nil {
		cfg.ConfigFilePath = f.Value.String()
	}

	// If the user named a config file it must exist; otherwise run on defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	var envFiles []string
	if cmd.Flags().Lookup("env-file") != nil {
		envFiles, _ = cmd.Flags().GetStringSlice("env-file") //nolint:errcheck // flag type is fixed
	}
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	if key := config.APIKeyFromEnv(); key != "" {
		cfg.APIKey = key
	}

	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlags copies explicitly set flags onto cfg. Flags left at their
// defaults do not override the configuration file.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "api-key":
			cfg.APIKey = f.Value.String()
		case "api-url":
			cfg.APIURL = f.Value.String()
		case "timeout":
			cfg.Timeout, err = flags.GetDuration(f.Name)
		case "rpm":
			cfg.RequestsPerMinute, err = flags.GetInt(f.Name)
		case "proxy":
			cfg.ProxyAddress = f.Value.String()
		case "concurrency":
			cfg.Concurrency, err = flags.GetInt(f.Name)
		case "format":
			cfg.InputFormat = f.Value.String()
		case "observable-column":
			cfg.ObservableColumn = f.Value.String()
		case "type-column":
			cfg.TypeColumn = f.Value.String()
		case "source-index-column":
			cfg.SourceIndexColumn = f.Value.String()
		case "alias":
			var aliases map[string]string
			aliases, err = flags.GetStringToString(f.Name)
			for k, v := range aliases {
				cfg.TypeAliases[k] = v
			}
		case "report":
			cfg.ReportFormat = f.Value.String()
		case "output":
			cfg.ReportFile = f.Value.String()
		case "save":
			cfg.SaveToDB, err = flags.GetBool(f.Name)
		case "db-dir":
			cfg.DBDir = f.Value.String()
		}
	})
	return err
}

// setupLogger creates a structured logger based on verbosity setting.
// API keys are masked in every record.
func setupLogger(verbose bool) *slog.Logger {
	return vtlog.NewSecureLogger(os.Stderr, verbose)
}

// newClient creates the reputation service client from cfg.
func newClient(cfg *config.Config, logger *slog.Logger) (*vtclient.Client, error) {
	opts := []vtclient.Option{
		vtclient.WithBaseURL(cfg.APIURL),
		vtclient.WithTimeout(cfg.Timeout),
		vtclient.WithRequestsPerMinute(cfg.RequestsPerMinute),
		vtclient.WithUserAgent(cfg.UserAgent),
		vtclient.WithMaxBodySize(cfg.MaxBodySize),
		vtclient.WithLogger(logger),
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, vtclient.WithProxy(cfg.ProxyAddress))
	}

	client, err := vtclient.New(cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// openReportOutput returns the report destination: the configured file or
// stdout. The returned close function is always safe to call.
func openReportOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports carry raw service responses; keep them owner-readable only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter resolves the configured report format.
func newReportWriter(cfg *config.Config, out io.Writer) (report.Writer, error) {
	format, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return nil, err
	}
	return report.NewWriter(format, out, getVersion(), cfg.Verbose)
}
