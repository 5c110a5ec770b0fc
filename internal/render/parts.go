package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

// PartsReport writes one row per trace part with its totals for the event
// type and its activation state.
func PartsReport(w io.Writer, data *tracedata.Data, costType *tracedata.CostType) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Part", "File", "PID", "Thread", "Trigger", costType.Name(), "Active"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
	})

	for _, part := range data.Parts() {
		active := ""
		if part.IsActive() {
			active = "yes"
		}

		tbl.AppendRow(table.Row{
			part.PrettyName(),
			part.ShortName(),
			part.ProcessID(),
			part.ThreadID(),
			part.Trigger(),
			humanize.Comma(int64(costType.EvalVector(part.Totals()))), //nolint:gosec // display only.
			active,
		})
	}

	tbl.Render()

	fmt.Fprintf(w, "total %s: %s (all parts), %s (active)\n",
		costType.Name(),
		costType.EvalVector(data.Totals()).Pretty(),
		data.EventCost(costType).Pretty(),
	)
}

// TypesReport writes the event-type registry of the trace: real types with
// their indices, virtual types with their formulas.
func TypesReport(w io.Writer, mapping *tracedata.Mapping) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Index", "Name", "Long Name", "Formula"})

	for i := 0; i < mapping.RealCount(); i++ {
		costType := mapping.RealType(i)
		tbl.AppendRow(table.Row{costType.RealIndex(), costType.Name(), costType.LongName(), ""})
	}

	for i := 0; i < mapping.VirtualCount(); i++ {
		costType := mapping.VirtualType(i)
		tbl.AppendRow(table.Row{
			mapping.MinVirtualIndex() + i,
			costType.Name(),
			costType.LongName(),
			costType.Formula(),
		})
	}

	tbl.Render()
}
