// Package config provides configuration loading and validation for the
// framestack CLI.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidPlotTheme = errors.New("invalid plot theme")
	ErrInvalidStep      = errors.New("export step must be positive")
)

// Default configuration values.
const (
	defaultLogLevel  = "info"
	defaultPlotTheme = "dark"
	defaultStep      = 1
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var validPlotThemes = []string{"dark", "light"}

// Config holds all configuration for the framestack CLI.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Export  ExportConfig  `mapstructure:"export"`
	Plot    PlotConfig    `mapstructure:"plot"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ExportConfig holds defaults for the export command.
type ExportConfig struct {
	Step    int  `mapstructure:"step"`
	Invert  bool `mapstructure:"invert"`
	Sidecar bool `mapstructure:"sidecar"`
}

// PlotConfig holds defaults for the plot command.
type PlotConfig struct {
	Theme string `mapstructure:"theme"`
}

// Load reads configuration from file and environment variables.
// An absent config file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("framestack")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME/.config/framestack")
	}

	viperCfg.SetEnvPrefix("FRAMESTACK")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validate(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("logging.level", defaultLogLevel)

	viperCfg.SetDefault("export.step", defaultStep)
	viperCfg.SetDefault("export.invert", false)
	viperCfg.SetDefault("export.sidecar", true)

	viperCfg.SetDefault("plot.theme", defaultPlotTheme)
}

func validate(config *Config) error {
	if !slices.Contains(validLogLevels, config.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if !slices.Contains(validPlotThemes, config.Plot.Theme) {
		return fmt.Errorf("%w: %q", ErrInvalidPlotTheme, config.Plot.Theme)
	}

	if config.Export.Step <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidStep, config.Export.Step)
	}

	return nil
}
