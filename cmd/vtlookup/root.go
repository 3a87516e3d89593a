package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for vtlookup.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vtlookup",
		Short: "Batched threat-intelligence lookups for indicators of compromise",
		Long: `vtlookup submits indicators of compromise (IPv4 addresses, domains, URLs,
MD5/SHA1/SHA256 hashes) to the reputation service's v2 API and collects the
reports into a single result table.

Observables are validated and normalized first, repeated observables are
answered from earlier results instead of being submitted again, and file
hashes are batched up to 25 per request.

The API key is read from VTLOOKUP_API_KEY (or VT_API_KEY), a .env file in the
current directory, the .vtlookup configuration file, or --api-key.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .vtlookup in current or home directory)")
	cmd.PersistentFlags().StringSlice("env-file", nil,
		"dotenv file(s) to load before reading the environment (default: .env)")

	// Add subcommands
	cmd.AddCommand(NewLookupCmd())
	cmd.AddCommand(NewIOCCmd())
	cmd.AddCommand(NewTypesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
