package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commandTrace = `version: 1
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

func writeCommandTrace(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.out.1")
	require.NoError(t, os.WriteFile(path, []byte(commandTrace), 0o600))

	return path
}

func TestReportCommand(t *testing.T) {
	path := writeCommandTrace(t)

	cmd := NewReportCommand()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--no-color", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "main")
	assert.Contains(t, out.String(), "helper")
	assert.Contains(t, out.String(), "1,000")
}

func TestReportCommandUnknownType(t *testing.T) {
	path := writeCommandTrace(t)

	cmd := NewReportCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--type", "bogus", path})

	require.ErrorIs(t, cmd.Execute(), ErrUnknownEventType)
}

func TestReportCommandExcludeParts(t *testing.T) {
	path := writeCommandTrace(t)

	cmd := NewReportCommand()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--no-color", "--exclude-parts", "1", path})

	require.NoError(t, cmd.Execute())

	// The only part is excluded, so every cost renders as zero.
	assert.Contains(t, out.String(), "main")
	assert.NotContains(t, out.String(), "1,000")
}

func TestPartsCommand(t *testing.T) {
	path := writeCommandTrace(t)

	cmd := NewPartsCommand()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Part 1")
}

func TestTypesCommand(t *testing.T) {
	path := writeCommandTrace(t)

	cmd := NewTypesCommand()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Instruction Fetch")
}

func TestCallGraphCommand(t *testing.T) {
	path := writeCommandTrace(t)
	output := filepath.Join(t.TempDir(), "graph.html")

	cmd := NewCallGraphCommand()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--output", output, path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "wrote")

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "echarts")
}
