package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevleyski/kcachegrind/internal/config"
	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Ir", cfg.EventType)
	assert.Equal(t, 20, cfg.Top)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Top = 0
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidTopN)

	cfg = config.Default()
	cfg.EventTypes = []config.EventTypeDef{{Formula: "Ir"}}
	require.ErrorIs(t, cfg.Validate(), config.ErrEventTypeName)

	cfg.EventTypes = []config.EventTypeDef{{Name: "X"}}
	require.ErrorIs(t, cfg.Validate(), config.ErrEventTypeFormula)

	cfg.EventTypes = []config.EventTypeDef{
		{Name: "X", Formula: "Ir"},
		{Name: "X", Formula: "Dr"},
	}
	require.ErrorIs(t, cfg.Validate(), config.ErrDuplicateTypeName)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cgview.yaml")

	const content = `event_type: CEst
top: 5
event_types:
  - name: Mem
    long_name: Memory Accesses
    formula: Dr + Dw
`

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "CEst", cfg.EventType)
	assert.Equal(t, 5, cfg.Top)
	require.Len(t, cfg.EventTypes, 1)

	cfg.RegisterEventTypes()
	require.NotNil(t, tracedata.KnownVirtualType("Mem"))
	assert.Equal(t, "Memory Accesses", tracedata.KnownVirtualType("Mem").LongName())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))

	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, loadErr := config.Load("")
	require.NoError(t, loadErr)
	assert.Equal(t, config.Default().EventType, cfg.EventType)
}
