// Package config loads cgview settings from file, environment and
// defaults, including user-defined virtual event types that extend the
// process-wide known-type registry.
package config

import (
	"errors"
	"fmt"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

// Validation errors.
var (
	ErrInvalidTopN       = errors.New("config: top must be positive")
	ErrEventTypeName     = errors.New("config: event type needs a short name")
	ErrEventTypeFormula  = errors.New("config: event type needs a formula")
	ErrDuplicateTypeName = errors.New("config: duplicate event type name")
)

// EventTypeDef is a user-defined virtual event type.
type EventTypeDef struct {
	Name     string `mapstructure:"name"`
	LongName string `mapstructure:"long_name"`
	Formula  string `mapstructure:"formula"`
}

// Config holds the cgview settings.
type Config struct {
	// EventType is the default event type for reports.
	EventType string `mapstructure:"event_type"`

	// Top is the default number of rows in function reports.
	Top int `mapstructure:"top"`

	// NoColor disables terminal colors.
	NoColor bool `mapstructure:"no_color"`

	// Percent renders costs relative to the total over active parts.
	Percent bool `mapstructure:"percent"`

	// EventTypes extends the known-type registry before traces load.
	EventTypes []EventTypeDef `mapstructure:"event_types"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		EventType: "Ir",
		Top:       20,
	}
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.Top <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTopN, c.Top)
	}

	seen := make(map[string]bool, len(c.EventTypes))

	for _, def := range c.EventTypes {
		if def.Name == "" {
			return ErrEventTypeName
		}

		if def.Formula == "" {
			return fmt.Errorf("%w: %s", ErrEventTypeFormula, def.Name)
		}

		if seen[def.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTypeName, def.Name)
		}

		seen[def.Name] = true
	}

	return nil
}

// RegisterEventTypes adds the user-defined virtual types to the known-type
// registry, so every loaded mapping can pick them up.
func (c *Config) RegisterEventTypes() {
	for _, def := range c.EventTypes {
		tracedata.AddKnownType(tracedata.NewCostType(def.Name, def.LongName, def.Formula))
	}
}
