// Package main provides the entry point for the cgview CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kevleyski/kcachegrind/cmd/cgview/commands"
	"github.com/kevleyski/kcachegrind/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "cgview",
		Short: "cgview - callgrind profile browser for the terminal",
		Long: `cgview loads callgrind/cachegrind trace files and answers the questions
a profile browser would: which functions are expensive, who calls whom,
and how costs split over trace parts.

Commands:
  report     Top functions by an event type
  callgraph  Render the call graph as an HTML page
  parts      List trace parts and their totals
  types      List the event types of a trace
  mcp        Serve profile queries over MCP stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewCallGraphCommand())
	rootCmd.AddCommand(commands.NewPartsCommand())
	rootCmd.AddCommand(commands.NewTypesCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "cgview %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
