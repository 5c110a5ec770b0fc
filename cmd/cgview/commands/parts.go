package commands

import (
	"github.com/spf13/cobra"

	"github.com/kevleyski/kcachegrind/internal/render"
)

// PartsCommand holds the flags for the parts command.
type PartsCommand struct {
	commonFlags
}

// NewPartsCommand creates and configures the parts command.
func NewPartsCommand() *cobra.Command {
	cmd := &PartsCommand{}

	cobraCmd := &cobra.Command{
		Use:   "parts <trace>...",
		Short: "List trace parts and their totals",
		Args:  cobra.MinimumNArgs(1),
		RunE:  cmd.Run,
	}

	cobraCmd.Flags().StringVarP(&cmd.configPath, "config", "c", "", "Config file (default: .cgview.yaml in CWD or $HOME)")
	cobraCmd.Flags().StringVarP(&cmd.eventType, "type", "t", "", "Event type (short or long name)")
	cobraCmd.Flags().BoolVarP(&cmd.verbose, "verbose", "v", false, "Verbose output")
	cobraCmd.Flags().BoolVar(&cmd.strict, "strict", false, "Fail on malformed trace records")

	return cobraCmd
}

// Run executes the parts command.
func (c *PartsCommand) Run(cobraCmd *cobra.Command, args []string) error {
	cfg, err := c.setup()
	if err != nil {
		return err
	}

	data, err := c.loadTraces(args)
	if err != nil {
		return err
	}

	costType, err := c.resolveEventType(cfg, data)
	if err != nil {
		return err
	}

	render.PartsReport(cobraCmd.OutOrStdout(), data, costType)

	return nil
}

// TypesCommand holds the flags for the types command.
type TypesCommand struct {
	commonFlags
}

// NewTypesCommand creates and configures the types command.
func NewTypesCommand() *cobra.Command {
	cmd := &TypesCommand{}

	cobraCmd := &cobra.Command{
		Use:   "types <trace>...",
		Short: "List the event types of a trace",
		Args:  cobra.MinimumNArgs(1),
		RunE:  cmd.Run,
	}

	cobraCmd.Flags().StringVarP(&cmd.configPath, "config", "c", "", "Config file (default: .cgview.yaml in CWD or $HOME)")
	cobraCmd.Flags().BoolVarP(&cmd.verbose, "verbose", "v", false, "Verbose output")
	cobraCmd.Flags().BoolVar(&cmd.strict, "strict", false, "Fail on malformed trace records")

	return cobraCmd
}

// Run executes the types command.
func (c *TypesCommand) Run(cobraCmd *cobra.Command, args []string) error {
	_, err := c.setup()
	if err != nil {
		return err
	}

	data, err := c.loadTraces(args)
	if err != nil {
		return err
	}

	render.TypesReport(cobraCmd.OutOrStdout(), data.Mapping())

	return nil
}
