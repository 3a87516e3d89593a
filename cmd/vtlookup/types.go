package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/vtlookup/internal/ioc"
	"github.com/spf13/cobra"
)

// typeInfo is one row of the types listing.
type typeInfo struct {
	Type      string `json:"type"`
	Family    string `json:"family"`
	APIType   string `json:"api_type"`
	BatchSize int    `json:"batch_size"`
	Method    string `json:"method"`
	Param     string `json:"param"`
}

// NewTypesCmd creates the types command.
func NewTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List supported observable types",
		Long: `Types lists the canonical observable types, the service API type each one
is submitted as, and how many observables share one request.

Examples:
  vtlookup types
  vtlookup types --json`,
		Args: cobra.NoArgs,
		RunE: runTypesCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the type mapping in JSON format")

	return cmd
}

// runTypesCmd executes the types command.
func runTypesCmd(cmd *cobra.Command, _ []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	infos, err := listTypes(ioc.NewRegistry())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	}

	fmt.Fprintf(out, "  %-12s  %-10s  %-10s  %-5s  %-6s  %s\n", "Type", "Family", "API Type", "Batch", "Method", "Param")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 62))
	for _, info := range infos {
		fmt.Fprintf(out, "  %-12s  %-10s  %-10s  %-5d  %-6s  %s\n",
			info.Type, info.Family, info.APIType, info.BatchSize, info.Method, info.Param)
	}
	return nil
}

// listTypes resolves every registry type in processing order.
func listTypes(registry *ioc.Registry) ([]typeInfo, error) {
	types := registry.Types()
	infos := make([]typeInfo, 0, len(types))
	for _, t := range types {
		entry, err := registry.Lookup(t)
		if err != nil {
			return nil, err
		}
		infos = append(infos, typeInfo{
			Type:      t.String(),
			Family:    entry.Family.String(),
			APIType:   entry.Descriptor.APIType,
			BatchSize: entry.Descriptor.BatchSize,
			Method:    entry.Descriptor.HTTPVerb,
			Param:     entry.Descriptor.ParamName,
		})
	}
	return infos, nil
}
