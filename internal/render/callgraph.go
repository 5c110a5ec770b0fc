package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

const (
	minNodeSize = 8
	maxNodeSize = 60

	forceRepulsion = 400
)

// CallGraphOptions control the rendered call graph page.
type CallGraphOptions struct {
	// Title overrides the page title.
	Title string

	// MinShare drops functions below this inclusive share of the total,
	// in percent.
	MinShare float64
}

// CallGraph writes an interactive HTML page with the function call graph.
// Cycle members are folded into their cycle nodes, so the rendered graph
// is acyclic apart from explicit recursion collapsed earlier.
func CallGraph(w io.Writer, data *tracedata.Data, costType *tracedata.CostType, cgOpts CallGraphOptions) error {
	total := float64(costType.EvalVector(data.Totals()))

	title := cgOpts.Title
	if title == "" {
		title = fmt.Sprintf("Call graph — %s (%s)", data.PrettyName(), costType.LongName())
	}

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1400px", Height: "900px"}),
	)

	nodes, links := buildGraphSeries(data, costType, total, cgOpts.MinShare)

	graph.AddSeries("calls", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:             "force",
			Roam:               opts.Bool(true),
			FocusNodeAdjacency: opts.Bool(true),
			Force:              &opts.GraphForce{Repulsion: forceRepulsion},
			EdgeSymbol:         []string{"none", "arrow"},
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
	)

	err := graph.Render(w)
	if err != nil {
		return fmt.Errorf("render call graph: %w", err)
	}

	return nil
}

// buildGraphSeries converts the visible call graph into echarts series.
// Functions inside cycles are represented by their cycle node.
func buildGraphSeries(data *tracedata.Data, costType *tracedata.CostType, total, minShare float64) ([]opts.GraphNode, []opts.GraphLink) {
	visible := func(function *tracedata.Function) *tracedata.Function {
		if cycle := function.Cycle(); cycle != nil {
			return &cycle.Function
		}

		return function
	}

	included := make(map[*tracedata.Function]bool)

	var nodes []opts.GraphNode

	addNode := func(function *tracedata.Function) bool {
		if included[function] {
			return true
		}

		inclusive := float64(costType.EvalVector(function.Cumulative()))
		if total > 0 && inclusive/total*100 < minShare {
			return false
		}

		included[function] = true
		nodes = append(nodes, opts.GraphNode{
			Name:       function.PrettyName(),
			Value:      float32(inclusive),
			SymbolSize: nodeSize(inclusive, total),
		})

		return true
	}

	for _, function := range sortedFunctions(data) {
		if !function.IsCycleMember() {
			addNode(function)
		}
	}

	for _, cycle := range data.FunctionCycles() {
		addNode(&cycle.Function)
	}

	linkSeen := make(map[[2]*tracedata.Function]bool)

	var links []opts.GraphLink

	for _, function := range sortedFunctions(data) {
		for _, call := range function.Callings(false) {
			source := visible(call.Caller(false))
			target := visible(call.Called(false))

			// Intra-cycle edges collapse onto the node itself.
			if source == target {
				continue
			}

			if !included[source] || !included[target] {
				continue
			}

			key := [2]*tracedata.Function{source, target}
			if linkSeen[key] {
				continue
			}

			linkSeen[key] = true
			links = append(links, opts.GraphLink{
				Source: source.PrettyName(),
				Target: target.PrettyName(),
				Value:  float32(call.CallCount()),
			})
		}
	}

	return nodes, links
}

// nodeSize scales a node by the square root of its share, clamped to keep
// the page readable.
func nodeSize(inclusive, total float64) float32 {
	if total <= 0 {
		return minNodeSize
	}

	size := math.Sqrt(inclusive/total) * maxNodeSize
	if size < minNodeSize {
		size = minNodeSize
	}

	if size > maxNodeSize {
		size = maxNodeSize
	}

	return float32(size)
}
