package cli

import (
	"fmt"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/client"
	"github.com/dbpedia/databusclient/pkg/config"
)

// These variables will be set by the main package.
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// loadConfig loads the configuration file, applies the global CLI flag
// overrides and initializes the logger. A missing file yields defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	format := logger.FormatText
	if cfg.Settings.OutputFormat == "json" {
		format = logger.FormatJSON
	}
	logger.InitLogger(cfg.Settings.LogLevel, format)

	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

func noColor() bool {
	return NoColor != nil && *NoColor
}

// progressHooks prints phase events in a simple, human-friendly form.
func progressHooks() client.Hooks {
	return client.Hooks{OnEvent: func(e client.Event) {
		switch {
		case e.ID != "" && e.Msg != "":
			fmt.Printf("%s: %s (%s)\n", e.Phase, e.Msg, e.ID)
		case e.ID != "":
			fmt.Printf("%s: %s\n", e.Phase, e.ID)
		default:
			fmt.Printf("%s\n", e.Phase)
		}
	}}
}
