package config

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		LogDir:     "logs",
		FilePrefix: "procmon",
		Sampling: SamplingConfig{
			IntervalMs:      100,
			DurationSeconds: 0, // unbounded
			SeriesCapacity:  3600,
		},
		Metrics: MetricsConfig{
			CPU:      true,
			RAM:      true,
			GPUCore:  true,
			GPUVideo: true,
			VRAM:     true,
		},
		Capacity: CapacityConfig{
			RAMFallbackMB:  8192,
			VRAMFallbackMB: 4096,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
