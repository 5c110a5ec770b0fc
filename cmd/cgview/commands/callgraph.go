package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kevleyski/kcachegrind/internal/render"
)

// CallGraphCommand holds the flags for the callgraph command.
type CallGraphCommand struct {
	commonFlags

	output   string
	minShare float64
}

// NewCallGraphCommand creates and configures the callgraph command.
func NewCallGraphCommand() *cobra.Command {
	cmd := &CallGraphCommand{}

	cobraCmd := &cobra.Command{
		Use:   "callgraph <trace>...",
		Short: "Render the call graph as an HTML page",
		Args:  cobra.MinimumNArgs(1),
		RunE:  cmd.Run,
	}

	cobraCmd.Flags().StringVarP(&cmd.configPath, "config", "c", "", "Config file (default: .cgview.yaml in CWD or $HOME)")
	cobraCmd.Flags().StringVarP(&cmd.eventType, "type", "t", "", "Event type (short or long name)")
	cobraCmd.Flags().StringVarP(&cmd.output, "output", "o", "callgraph.html", "Output HTML file")
	cobraCmd.Flags().Float64Var(&cmd.minShare, "min-share", 0.5, "Hide functions below this inclusive share (percent)")
	cobraCmd.Flags().BoolVarP(&cmd.verbose, "verbose", "v", false, "Verbose output")
	cobraCmd.Flags().BoolVar(&cmd.strict, "strict", false, "Fail on malformed trace records")

	return cobraCmd
}

// Run executes the callgraph command.
func (c *CallGraphCommand) Run(cobraCmd *cobra.Command, args []string) error {
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

	file, err := os.Create(c.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer file.Close()

	err = render.CallGraph(file, data, costType, render.CallGraphOptions{MinShare: c.minShare})
	if err != nil {
		return err
	}

	fmt.Fprintf(cobraCmd.OutOrStdout(), "wrote %s\n", c.output)

	return nil
}
