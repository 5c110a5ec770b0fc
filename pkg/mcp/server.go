// Package mcp implements a Model Context Protocol server exposing profile
// queries over a loaded trace as MCP tools on stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "cgview"
	// serverVersion is the MCP server implementation version.
	serverVersion = "1.0.0"

	// toolCount is the expected number of registered tools.
	toolCount = 4
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger
}

// Server wraps the MCP SDK server with profile query tools. The loaded
// trace is server state: profile_load replaces it, the query tools read it.
type Server struct {
	inner *mcpsdk.Server

	mu    sync.RWMutex
	tools []string
	data  *tracedata.Data

	logger *slog.Logger
}

// NewServer creates a new MCP server with all profile tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		opts,
	)

	srv := &Server{
		inner:  inner,
		tools:  make([]string, 0, toolCount),
		logger: deps.Logger,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the
// context is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// setData replaces the loaded trace.
func (s *Server) setData(data *tracedata.Data) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
}

// currentData returns the loaded trace, nil before any load.
func (s *Server) currentData() *tracedata.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data
}

// registerTools adds all profile MCP tools to the server.
func (s *Server) registerTools() {
	s.registerLoadTool()
	s.registerFunctionsTool()
	s.registerCallersTool()
	s.registerPartsTool()
}

func (s *Server) registerLoadTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameLoad,
		Description: loadToolDescription,
	}, s.handleLoad)

	s.trackTool(ToolNameLoad)
}

func (s *Server) registerFunctionsTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameFunctions,
		Description: functionsToolDescription,
	}, s.handleFunctions)

	s.trackTool(ToolNameFunctions)
}

func (s *Server) registerCallersTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameCallers,
		Description: callersToolDescription,
	}, s.handleCallers)

	s.trackTool(ToolNameCallers)
}

func (s *Server) registerPartsTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameParts,
		Description: partsToolDescription,
	}, s.handleParts)

	s.trackTool(ToolNameParts)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	loadToolDescription = "Load a callgrind/cachegrind trace (all its parts) " +
		"into the server. Returns a summary of parts, event types and entity counts."

	functionsToolDescription = "List the most expensive functions of the loaded " +
		"trace by an event type, with exclusive and inclusive costs and call counts."

	callersToolDescription = "Show one function of the loaded trace in detail: " +
		"location, costs, callers and callees, and cycle membership."

	partsToolDescription = "List the trace parts with their totals, and " +
		"optionally activate or deactivate parts to filter all cost queries."
)
