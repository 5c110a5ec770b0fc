// Package commands implements the cgview subcommands.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kevleyski/kcachegrind/internal/config"
	"github.com/kevleyski/kcachegrind/pkg/callgrind"
	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

// ErrUnknownEventType is returned when --type names no mapped event type.
var ErrUnknownEventType = errors.New("unknown event type")

// commonFlags are shared by all trace-loading commands.
type commonFlags struct {
	configPath string
	eventType  string
	verbose    bool
	strict     bool
}

// setup loads the configuration and prepares logging.
func (c *commonFlags) setup() (*config.Config, error) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	cfg.RegisterEventTypes()

	return cfg, nil
}

// loadTraces loads all given trace bases into one Data, derives the
// virtual types, and detects call cycles.
func (c *commonFlags) loadTraces(bases []string) (*tracedata.Data, error) {
	data := tracedata.NewData()
	parser := &callgrind.Parser{Logger: slog.Default(), Strict: c.strict}

	for _, base := range bases {
		_, err := parser.LoadTrace(data, base)
		if err != nil {
			return nil, err
		}
	}

	if skipped := parser.SkippedRecords(); skipped > 0 {
		slog.Warn("skipped malformed trace records", "count", skipped)
	}

	data.Mapping().AddKnownVirtualTypes()
	data.UpdateFunctionCycles()

	return data, nil
}

// resolveEventType picks the event type for a report: the flag, then the
// configured default, then the first real type.
func (c *commonFlags) resolveEventType(cfg *config.Config, data *tracedata.Data) (*tracedata.CostType, error) {
	mapping := data.Mapping()

	for _, name := range []string{c.eventType, cfg.EventType} {
		if name == "" {
			continue
		}

		if costType := mapping.TypeByName(name); costType != nil {
			return costType, nil
		}

		if costType := mapping.TypeByLongName(name); costType != nil {
			return costType, nil
		}

		if name == c.eventType {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, name)
		}
	}

	if mapping.RealCount() == 0 {
		return nil, fmt.Errorf("%w: trace carries no event types", ErrUnknownEventType)
	}

	return mapping.RealType(0), nil
}
