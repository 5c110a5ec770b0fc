package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".cgview"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for cgview settings.
const envPrefix = "CGVIEW"

// Load reads configuration from file, env vars, and defaults. If
// configPath is non-empty, it is used as the explicit config file path.
// Otherwise the config file is searched in CWD and $HOME. A missing config
// file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	defaults := Default()
	viperCfg.SetDefault("event_type", defaults.EventType)
	viperCfg.SetDefault("top", defaults.Top)
	viperCfg.SetDefault("no_color", defaults.NoColor)
	viperCfg.SetDefault("percent", defaults.Percent)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}
