package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kevleyski/kcachegrind/pkg/callgrind"
	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

// Tool name constants.
const (
	ToolNameLoad      = "profile_load"
	ToolNameFunctions = "profile_functions"
	ToolNameCallers   = "profile_callers"
	ToolNameParts     = "profile_parts"
)

// defaultTop bounds function listings when the client gives no limit.
const defaultTop = 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyTracePath indicates the trace_path parameter is empty.
	ErrEmptyTracePath = errors.New("trace_path parameter is required and must not be empty")
	// ErrTracePathNotAbsolute indicates the trace_path is not absolute.
	ErrTracePathNotAbsolute = errors.New("trace_path must be an absolute path")
	// ErrNoTraceLoaded indicates no trace was loaded yet.
	ErrNoTraceLoaded = errors.New("no trace loaded; call profile_load first")
	// ErrUnknownEventType indicates the event type is not in the mapping.
	ErrUnknownEventType = errors.New("unknown event type")
	// ErrUnknownFunction indicates the function name matched nothing.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrUnknownPart indicates a part number matched no trace part.
	ErrUnknownPart = errors.New("unknown part number")
)

// Input types (auto-generate JSON schemas via struct tags).

// LoadInput is the input schema for the profile_load tool.
type LoadInput struct {
	TracePath string `json:"trace_path" jsonschema:"absolute path to a callgrind trace file or multi-part base name"`
}

// FunctionsInput is the input schema for the profile_functions tool.
type FunctionsInput struct {
	EventType string `json:"event_type,omitempty" jsonschema:"short event type name (default: first real type)"`
	Top       int    `json:"top,omitempty"        jsonschema:"maximum number of functions to return (default: 20)"`
}

// CallersInput is the input schema for the profile_callers tool.
type CallersInput struct {
	Function  string `json:"function"             jsonschema:"function name to inspect"`
	EventType string `json:"event_type,omitempty" jsonschema:"short event type name (default: first real type)"`
}

// PartsInput is the input schema for the profile_parts tool.
type PartsInput struct {
	Activate   []int `json:"activate,omitempty"   jsonschema:"part numbers to activate before listing"`
	Deactivate []int `json:"deactivate,omitempty" jsonschema:"part numbers to deactivate before listing"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// Output shapes.

// LoadSummary describes a freshly loaded trace.
type LoadSummary struct {
	Trace      string   `json:"trace"`
	Command    string   `json:"command,omitempty"`
	Parts      int      `json:"parts"`
	Functions  int      `json:"functions"`
	EventTypes []string `json:"event_types"`
	Skipped    int      `json:"skipped_records,omitempty"`
}

// FunctionCost is one row of a function listing.
type FunctionCost struct {
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Self      uint64 `json:"self"`
	Inclusive uint64 `json:"inclusive"`
	Called    uint64 `json:"called"`
	Cycle     int    `json:"cycle,omitempty"`
}

// CallEdge is one caller or callee entry of a function detail.
type CallEdge struct {
	Function  string `json:"function"`
	Calls     uint64 `json:"calls"`
	Inclusive uint64 `json:"inclusive"`
}

// FunctionDetail describes one function with its call edges.
type FunctionDetail struct {
	FunctionCost

	Callers []CallEdge `json:"callers,omitempty"`
	Callees []CallEdge `json:"callees,omitempty"`
}

// PartInfo is one row of the parts listing.
type PartInfo struct {
	Number  int    `json:"number"`
	File    string `json:"file"`
	PID     int    `json:"pid,omitempty"`
	Thread  int    `json:"thread,omitempty"`
	Trigger string `json:"trigger,omitempty"`
	Total   uint64 `json:"total"`
	Active  bool   `json:"active"`
}

// Handlers.

func (s *Server) handleLoad(_ context.Context, _ *mcpsdk.CallToolRequest, input LoadInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.TracePath == "" {
		return errorResult(ErrEmptyTracePath)
	}

	if !filepath.IsAbs(input.TracePath) {
		return errorResult(fmt.Errorf("%w: %s", ErrTracePathNotAbsolute, input.TracePath))
	}

	data := tracedata.NewData()
	parser := &callgrind.Parser{Logger: s.logger}

	parts, err := parser.LoadTrace(data, input.TracePath)
	if err != nil {
		return errorResult(err)
	}

	data.UpdateFunctionCycles()
	s.setData(data)

	mapping := data.Mapping()
	mapping.AddKnownVirtualTypes()

	eventTypes := make([]string, 0, mapping.RealCount()+mapping.VirtualCount())
	for i := 0; i < mapping.RealCount(); i++ {
		eventTypes = append(eventTypes, mapping.RealType(i).Name())
	}

	for i := 0; i < mapping.VirtualCount(); i++ {
		eventTypes = append(eventTypes, mapping.VirtualType(i).Name())
	}

	return jsonResult(LoadSummary{
		Trace:      input.TracePath,
		Command:    data.Command(),
		Parts:      len(parts),
		Functions:  len(data.FunctionMap()),
		EventTypes: eventTypes,
		Skipped:    parser.SkippedRecords(),
	})
}

func (s *Server) handleFunctions(_ context.Context, _ *mcpsdk.CallToolRequest, input FunctionsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data := s.currentData()
	if data == nil {
		return errorResult(ErrNoTraceLoaded)
	}

	costType, err := resolveEventType(data, input.EventType)
	if err != nil {
		return errorResult(err)
	}

	top := input.Top
	if top <= 0 {
		top = defaultTop
	}

	rows := topFunctions(data, costType, top)

	return jsonResult(rows)
}

func (s *Server) handleCallers(_ context.Context, _ *mcpsdk.CallToolRequest, input CallersInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data := s.currentData()
	if data == nil {
		return errorResult(ErrNoTraceLoaded)
	}

	costType, err := resolveEventType(data, input.EventType)
	if err != nil {
		return errorResult(err)
	}

	found := data.Search(tracedata.KindFunction, input.Function, costType, nil)
	if found == nil {
		return errorResult(fmt.Errorf("%w: %s", ErrUnknownFunction, input.Function))
	}

	function := found.(*tracedata.Function)

	detail := FunctionDetail{FunctionCost: functionCost(function, costType)}

	for _, call := range function.Callers(false) {
		detail.Callers = append(detail.Callers, CallEdge{
			Function:  call.CallerName(true),
			Calls:     uint64(call.CallCount()),
			Inclusive: uint64(costType.EvalVector(call.Vector())),
		})
	}

	for _, call := range function.Callings(false) {
		detail.Callees = append(detail.Callees, CallEdge{
			Function:  call.CalledName(true),
			Calls:     uint64(call.CallCount()),
			Inclusive: uint64(costType.EvalVector(call.Vector())),
		})
	}

	return jsonResult(detail)
}

func (s *Server) handleParts(_ context.Context, _ *mcpsdk.CallToolRequest, input PartsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data := s.currentData()
	if data == nil {
		return errorResult(ErrNoTraceLoaded)
	}

	changed := false

	for _, number := range input.Activate {
		part, findErr := partByNumber(data, number)
		if findErr != nil {
			return errorResult(findErr)
		}

		changed = data.ActivatePart(part, true) || changed
	}

	for _, number := range input.Deactivate {
		part, findErr := partByNumber(data, number)
		if findErr != nil {
			return errorResult(findErr)
		}

		changed = data.ActivatePart(part, false) || changed
	}

	if changed {
		data.InvalidateDynamicCost()
	}

	infos := make([]PartInfo, 0, len(data.Parts()))

	for _, part := range data.Parts() {
		total := uint64(0)
		if mapping := data.Mapping(); mapping.RealCount() > 0 {
			total = uint64(mapping.RealType(0).EvalVector(part.Totals()))
		}

		infos = append(infos, PartInfo{
			Number:  part.PartNumber(),
			File:    part.ShortName(),
			PID:     part.ProcessID(),
			Thread:  part.ThreadID(),
			Trigger: part.Trigger(),
			Total:   total,
			Active:  part.IsActive(),
		})
	}

	return jsonResult(infos)
}

// Helpers.

func resolveEventType(data *tracedata.Data, name string) (*tracedata.CostType, error) {
	mapping := data.Mapping()

	if name == "" {
		if mapping.RealCount() == 0 {
			return nil, ErrUnknownEventType
		}

		return mapping.RealType(0), nil
	}

	costType := mapping.TypeByName(name)
	if costType == nil {
		costType = mapping.TypeByLongName(name)
	}

	if costType == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, name)
	}

	return costType, nil
}

func partByNumber(data *tracedata.Data, number int) (*tracedata.Part, error) {
	for _, part := range data.Parts() {
		if part.PartNumber() == number {
			return part, nil
		}
	}

	return nil, fmt.Errorf("%w: %d", ErrUnknownPart, number)
}

func functionCost(function *tracedata.Function, costType *tracedata.CostType) FunctionCost {
	cycleNo := 0
	if cycle := function.Cycle(); cycle != nil {
		cycleNo = cycle.CycleNo()
	}

	return FunctionCost{
		Name:      function.PrettyName(),
		Location:  function.Location(),
		Self:      uint64(costType.EvalVector(function.Self())),
		Inclusive: uint64(costType.EvalVector(function.Cumulative())),
		Called:    uint64(function.CalledCount()),
		Cycle:     cycleNo,
	}
}

// topFunctions lists the most expensive functions by inclusive cost.
func topFunctions(data *tracedata.Data, costType *tracedata.CostType, top int) []FunctionCost {
	var rows []FunctionCost

	for _, function := range data.FunctionMap() {
		rows = append(rows, functionCost(function, costType))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Inclusive != rows[j].Inclusive {
			return rows[i].Inclusive > rows[j].Inclusive
		}

		return rows[i].Name < rows[j].Name
	})

	if top < len(rows) {
		rows = rows[:top]
	}

	return rows
}
