package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kevleyski/kcachegrind/pkg/mcp"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve profile queries over MCP stdio",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes profile queries as tools that AI agents can
discover and invoke:
  - profile_load:      load a trace (all its parts)
  - profile_functions: top functions by an event type
  - profile_callers:   callers and callees of one function
  - profile_parts:     list and toggle trace parts`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			srv := mcp.NewServer(mcp.ServerDeps{Logger: logger})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
