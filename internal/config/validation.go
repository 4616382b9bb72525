package config

import (
	"fmt"
	"strings"
)

// MinIntervalMs is the floor for the sampling interval. Intervals below it
// are rejected wherever they originate (config file or CLI flag).
const MinIntervalMs = 10

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validatePaths()...)
	errors = append(errors, c.validateSampling()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateCapacity()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	if c.LogDir == "" {
		errors = append(errors, ValidationError{
			Path:    "log_dir",
			Message: "must not be empty",
		})
	}

	if c.FilePrefix == "" {
		errors = append(errors, ValidationError{
			Path:    "file_prefix",
			Message: "must not be empty",
		})
	} else if strings.ContainsAny(c.FilePrefix, `/\`) {
		errors = append(errors, ValidationError{
			Path:    "file_prefix",
			Message: fmt.Sprintf("must not contain path separators, got '%s'", c.FilePrefix),
		})
	}

	return errors
}

func (c *Config) validateSampling() []ValidationError {
	var errors []ValidationError

	if c.Sampling.IntervalMs < MinIntervalMs {
		errors = append(errors, ValidationError{
			Path:    "sampling.interval_ms",
			Message: fmt.Sprintf("must be at least %d, got %d", MinIntervalMs, c.Sampling.IntervalMs),
		})
	}

	if c.Sampling.DurationSeconds < 0 {
		errors = append(errors, ValidationError{
			Path:    "sampling.duration_seconds",
			Message: fmt.Sprintf("must be non-negative (0 = unbounded), got %d", c.Sampling.DurationSeconds),
		})
	}

	if c.Sampling.SeriesCapacity < 1 {
		errors = append(errors, ValidationError{
			Path:    "sampling.series_capacity",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Sampling.SeriesCapacity),
		})
	}

	return errors
}

func (c *Config) validateMetrics() []ValidationError {
	m := c.Metrics
	if m.CPU || m.RAM || m.GPUCore || m.GPUVideo || m.VRAM {
		return nil
	}

	return []ValidationError{{
		Path:    "metrics",
		Message: "at least one metric must be enabled",
	}}
}

func (c *Config) validateCapacity() []ValidationError {
	var errors []ValidationError

	if c.Capacity.RAMFallbackMB < 1 {
		errors = append(errors, ValidationError{
			Path:    "capacity.ram_fallback_mb",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Capacity.RAMFallbackMB),
		})
	}

	if c.Capacity.VRAMFallbackMB < 1 {
		errors = append(errors, ValidationError{
			Path:    "capacity.vram_fallback_mb",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Capacity.VRAMFallbackMB),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	validLevels := []string{"debug", "info", "warn", "error"}
	if contains(validLevels, c.Logging.Level) {
		return nil
	}

	return []ValidationError{{
		Path:    "logging.level",
		Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
	}}
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
