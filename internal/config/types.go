package config

// Config represents the complete procmon configuration
type Config struct {
	LogDir     string         `yaml:"log_dir"`
	FilePrefix string         `yaml:"file_prefix"`
	Sampling   SamplingConfig `yaml:"sampling"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Capacity   CapacityConfig `yaml:"capacity"`
	Logging    LoggingConfig  `yaml:"logging"`
}

// SamplingConfig represents default sampling parameters. CLI flags override
// these per invocation.
type SamplingConfig struct {
	IntervalMs      int `yaml:"interval_ms"`
	DurationSeconds int `yaml:"duration_seconds"`
	SeriesCapacity  int `yaml:"series_capacity"`
}

// MetricsConfig represents which metrics are collected by default
type MetricsConfig struct {
	CPU      bool `yaml:"cpu"`
	RAM      bool `yaml:"ram"`
	GPUCore  bool `yaml:"gpu_core"`
	GPUVideo bool `yaml:"gpu_video"`
	VRAM     bool `yaml:"vram"`
}

// CapacityConfig represents the fallback totals used to derive memory
// percentages when no backend reports a real capacity. Estimates only,
// never zero: they are the denominator of the percentage columns.
type CapacityConfig struct {
	RAMFallbackMB  int `yaml:"ram_fallback_mb"`
	VRAMFallbackMB int `yaml:"vram_fallback_mb"`
}

// LoggingConfig represents event log configuration. An empty file routes
// events to stderr.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
