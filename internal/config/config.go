// Package config loads the procmon configuration. All paths are resolved
// relative to the current working directory: an optional procmon.yaml next
// to where the tool is invoked overlays the built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-directory configuration file.
const ConfigFileName = "procmon.yaml"

const (
	// EnvConfigFile points Load at an explicit configuration file instead
	// of procmon.yaml in the working directory.
	EnvConfigFile = "PROCMON_CONFIG"
	// EnvLogDir overrides the log directory from any file layer.
	EnvLogDir = "PROCMON_LOG_DIR"
)

// Load returns the defaults overlaid with procmon.yaml from the current
// working directory, if present. PROCMON_CONFIG selects a different file,
// in which case that file must exist.
func Load() (Config, error) {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return LoadFrom(path)
	}

	cfg := DefaultConfig()

	if err := overlayFile(&cfg, ConfigFileName); err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load %s: %w", ConfigFileName, err)
		}
		// No config file is the common case, defaults apply
	}
	overlayEnv(&cfg)

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// LoadFrom loads configuration from a specific file path
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := overlayFile(&cfg, path); err != nil {
		return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	overlayEnv(&cfg)

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// overlayEnv applies environment overrides on top of the file layers.
func overlayEnv(cfg *Config) {
	if dir := os.Getenv(EnvLogDir); dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			cfg.LogDir = abs
		} else {
			cfg.LogDir = dir
		}
	}
}

// overlayFile unmarshals a YAML file on top of cfg. Keys absent from the
// file keep their current values, so cfg acts as the default layer.
func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is constructed from trusted sources
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// formatValidationErrors formats validation errors for display
func formatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	if len(errors) == 1 {
		return errors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(errors))
	for _, err := range errors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}
