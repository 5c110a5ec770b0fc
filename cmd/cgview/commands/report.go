package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kevleyski/kcachegrind/internal/render"
	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

// ReportCommand holds the flags for the report command.
type ReportCommand struct {
	commonFlags

	top              int
	percent          bool
	noColor          bool
	excludePartsSpec string
}

// NewReportCommand creates and configures the report command.
func NewReportCommand() *cobra.Command {
	cmd := &ReportCommand{}

	cobraCmd := &cobra.Command{
		Use:   "report <trace>...",
		Short: "Top functions by an event type",
		Args:  cobra.MinimumNArgs(1),
		RunE:  cmd.Run,
	}

	cobraCmd.Flags().StringVarP(&cmd.configPath, "config", "c", "", "Config file (default: .cgview.yaml in CWD or $HOME)")
	cobraCmd.Flags().StringVarP(&cmd.eventType, "type", "t", "", "Event type (short or long name)")
	cobraCmd.Flags().IntVarP(&cmd.top, "top", "n", 0, "Number of functions to show (default from config)")
	cobraCmd.Flags().BoolVarP(&cmd.percent, "percent", "p", false, "Show costs relative to the total")
	cobraCmd.Flags().BoolVar(&cmd.noColor, "no-color", false, "Disable colored output")
	cobraCmd.Flags().StringVar(&cmd.excludePartsSpec, "exclude-parts", "", "Comma-separated part numbers to leave out")
	cobraCmd.Flags().BoolVarP(&cmd.verbose, "verbose", "v", false, "Verbose output")
	cobraCmd.Flags().BoolVar(&cmd.strict, "strict", false, "Fail on malformed trace records")

	return cobraCmd
}

// Run executes the report command.
func (c *ReportCommand) Run(cobraCmd *cobra.Command, args []string) error {
	cfg, err := c.setup()
	if err != nil {
		return err
	}

	data, err := c.loadTraces(args)
	if err != nil {
		return err
	}

	err = excludeParts(data, c.excludePartsSpec)
	if err != nil {
		return err
	}

	costType, err := c.resolveEventType(cfg, data)
	if err != nil {
		return err
	}

	top := c.top
	if top == 0 {
		top = cfg.Top
	}

	render.FunctionReport(cobraCmd.OutOrStdout(), data, costType, render.ReportOptions{
		Top:     top,
		Percent: c.percent || cfg.Percent,
		NoColor: c.noColor || cfg.NoColor,
	})

	return nil
}

// excludeParts deactivates the listed part numbers and invalidates the
// dynamic costs once.
func excludeParts(data *tracedata.Data, spec string) error {
	if spec == "" {
		return nil
	}

	changed := false

	for _, field := range strings.Split(spec, ",") {
		number, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return err
		}

		for _, part := range data.Parts() {
			if part.PartNumber() == number {
				changed = data.ActivatePart(part, false) || changed
			}
		}
	}

	if changed {
		data.InvalidateDynamicCost()
	}

	return nil
}
