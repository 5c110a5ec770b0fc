package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toolTestTrace = `version: 1
cmd: ./app
part: 1
events: Ir
fl=(1) main.c
fn=(1) main
10 100
cfn=(2) helper
calls=2 20
11 900
fn=(2)
20 900
`

func writeTrace(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.out.1")
	require.NoError(t, os.WriteFile(path, []byte(toolTestTrace), 0o600))

	return path
}

func loadServer(t *testing.T) *Server {
	t.Helper()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleLoad(context.Background(), nil, LoadInput{TracePath: writeTrace(t)})
	require.NoError(t, err)
	require.False(t, result.IsError)

	return srv
}

func TestListToolNames(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	assert.Equal(t, []string{
		ToolNameCallers,
		ToolNameFunctions,
		ToolNameLoad,
		ToolNameParts,
	}, srv.ListToolNames())
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleLoad(context.Background(), nil, LoadInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, _, err = srv.handleLoad(context.Background(), nil, LoadInput{TracePath: "relative/path"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestQueriesRequireLoadedTrace(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleFunctions(context.Background(), nil, FunctionsInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, _, err = srv.handleParts(context.Background(), nil, PartsInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestFunctionsTool(t *testing.T) {
	t.Parallel()

	srv := loadServer(t)

	result, output, err := srv.handleFunctions(context.Background(), nil, FunctionsInput{EventType: "Ir", Top: 1})
	require.NoError(t, err)
	require.False(t, result.IsError)

	rows, ok := output.Data.([]FunctionCost)
	require.True(t, ok)
	require.Len(t, rows, 1)

	assert.Equal(t, "main", rows[0].Name)
	assert.Equal(t, uint64(100), rows[0].Self)
	assert.Equal(t, uint64(1000), rows[0].Inclusive)
}

func TestFunctionsToolUnknownEventType(t *testing.T) {
	t.Parallel()

	srv := loadServer(t)

	result, _, err := srv.handleFunctions(context.Background(), nil, FunctionsInput{EventType: "bogus"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestCallersTool(t *testing.T) {
	t.Parallel()

	srv := loadServer(t)

	result, output, err := srv.handleCallers(context.Background(), nil, CallersInput{Function: "helper"})
	require.NoError(t, err)
	require.False(t, result.IsError)

	detail, ok := output.Data.(FunctionDetail)
	require.True(t, ok)

	assert.Equal(t, "helper", detail.Name)
	require.Len(t, detail.Callers, 1)
	assert.Equal(t, "main", detail.Callers[0].Function)
	assert.Equal(t, uint64(2), detail.Callers[0].Calls)
}

func TestPartsToolTogglesActivation(t *testing.T) {
	t.Parallel()

	srv := loadServer(t)

	result, output, err := srv.handleParts(context.Background(), nil, PartsInput{Deactivate: []int{1}})
	require.NoError(t, err)
	require.False(t, result.IsError)

	infos, ok := output.Data.([]PartInfo)
	require.True(t, ok)
	require.Len(t, infos, 1)
	assert.False(t, infos[0].Active)

	// Costs over active parts drop to zero with the only part disabled.
	_, functionsOut, err := srv.handleFunctions(context.Background(), nil, FunctionsInput{Top: 1})
	require.NoError(t, err)

	rows := functionsOut.Data.([]FunctionCost)
	assert.Equal(t, uint64(0), rows[0].Self)

	result, _, err = srv.handleParts(context.Background(), nil, PartsInput{Activate: []int{99}})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
