// Package render formats trace data for the terminal and for HTML call
// graph pages.
package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

// hotShareThreshold marks functions carrying at least this share of the
// total as hot in the report.
const hotShareThreshold = 10.0

// ReportOptions control the function report.
type ReportOptions struct {
	// Top limits the number of rows; zero means all.
	Top int

	// Percent renders costs relative to the active total.
	Percent bool

	// NoColor disables terminal colors.
	NoColor bool
}

// functionRow is one aggregated report row.
type functionRow struct {
	function  *tracedata.Function
	self      tracedata.SubCost
	inclusive tracedata.SubCost
}

// FunctionReport writes the top functions by the event type as a table.
func FunctionReport(w io.Writer, data *tracedata.Data, costType *tracedata.CostType, opts ReportOptions) {
	rows := collectFunctionRows(data, costType)

	total := data.EventCost(costType)

	header := fmt.Sprintf("%s — %s", data.PrettyName(), costType.LongName())
	if active := data.ActivePartRange(); active != "" && len(data.Parts()) > 1 {
		header += fmt.Sprintf(" (parts %s)", active)
	}

	fmt.Fprintln(w, header)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Incl.", "Self", "Called", "Function", "Location"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	hot := color.New(color.FgRed, color.Bold)

	limit := len(rows)
	if opts.Top > 0 && opts.Top < limit {
		limit = opts.Top
	}

	for _, row := range rows[:limit] {
		name := row.function.PrettyName()

		if !opts.NoColor && share(row.inclusive, total) >= hotShareThreshold {
			name = hot.Sprint(name)
		}

		tbl.AppendRow(table.Row{
			formatCost(row.inclusive, total, opts.Percent),
			formatCost(row.self, total, opts.Percent),
			humanize.Comma(int64(row.function.CalledCount())), //nolint:gosec // display only.
			name,
			row.function.Location(),
		})
	}

	tbl.Render()

	if limit < len(rows) {
		fmt.Fprintf(w, "(%d more functions)\n", len(rows)-limit)
	}
}

// collectFunctionRows gathers visible functions sorted by inclusive cost.
// Cycle members are listed individually; cycle nodes are appended so both
// views are present, the way the browser shows them.
func collectFunctionRows(data *tracedata.Data, costType *tracedata.CostType) []functionRow {
	functions := sortedFunctions(data)

	rows := make([]functionRow, 0, len(functions)+len(data.FunctionCycles()))

	for _, function := range functions {
		rows = append(rows, functionRow{
			function:  function,
			self:      costType.EvalVector(function.Self()),
			inclusive: costType.EvalVector(function.Cumulative()),
		})
	}

	for _, cycle := range data.FunctionCycles() {
		node := &cycle.Function
		rows = append(rows, functionRow{
			function:  node,
			self:      costType.EvalVector(node.Self()),
			inclusive: costType.EvalVector(node.Cumulative()),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].inclusive != rows[j].inclusive {
			return rows[i].inclusive > rows[j].inclusive
		}

		return rows[i].function.Name() < rows[j].function.Name()
	})

	return rows
}

func sortedFunctions(data *tracedata.Data) []*tracedata.Function {
	functions := make([]*tracedata.Function, 0, len(data.FunctionMap()))
	for _, function := range data.FunctionMap() {
		functions = append(functions, function)
	}

	sort.Slice(functions, func(i, j int) bool {
		return functions[i].Name() < functions[j].Name()
	})

	return functions
}

func share(value, total tracedata.SubCost) float64 {
	if total == 0 {
		return 0
	}

	return float64(value) / float64(total) * 100
}

func formatCost(value, total tracedata.SubCost, percent bool) string {
	if percent {
		return fmt.Sprintf("%.2f%%", share(value, total))
	}

	return humanize.Comma(int64(value)) //nolint:gosec // display only.
}
