package monitor

import (
	"fmt"
	"time"
)

// MinInterval is the floor for the sampling interval. Requests below it are
// rejected rather than silently raised.
const MinInterval = 10 * time.Millisecond

// TimestampLayout renders sample timestamps with millisecond precision.
const TimestampLayout = "2006-01-02 15:04:05.000"

// Settings is the immutable description of one monitoring session. It is
// validated once and then snapshotted; changes after a session has started
// have no effect on that session.
type Settings struct {
	// Duration bounds the session; 0 means run until stopped.
	Duration time.Duration
	// Interval is the sampling cadence, at least MinInterval.
	Interval time.Duration

	// Metric toggles. At least one must be set.
	CPU      bool
	RAM      bool
	GPUCore  bool
	GPUVideo bool
	VRAM     bool

	// LogEnabled controls whether samples are persisted as CSV.
	LogEnabled bool
	// LogDir is the directory for generated log files, relative to the
	// working directory unless absolute.
	LogDir string
	// FilePrefix starts generated log file names.
	FilePrefix string
	// LogFilename, when set, overrides the generated file name.
	LogFilename string

	// Capacity estimates used when no backend reports a real total.
	RAMFallbackMB  float64
	VRAMFallbackMB float64
}

// Validate reports whether the settings describe a runnable session.
func (s Settings) Validate() error {
	if s.Interval < MinInterval {
		return fmt.Errorf("interval %s is below the minimum %s", s.Interval, MinInterval)
	}
	if s.Duration < 0 {
		return fmt.Errorf("duration %s is negative", s.Duration)
	}
	if !s.HasEnabledMetric() {
		return fmt.Errorf("no metrics enabled")
	}
	return nil
}

// HasEnabledMetric reports whether at least one metric toggle is set.
func (s Settings) HasEnabledMetric() bool {
	return s.CPU || s.RAM || s.GPUCore || s.GPUVideo || s.VRAM
}

// Sample is one tick's worth of readings. Disabled metrics stay zero and
// are skipped by output layers.
type Sample struct {
	Timestamp time.Time

	CPUPercent      float64
	RAMUsedMB       float64
	RAMPercent      float64
	GPUCorePercent  float64
	GPUVideoPercent float64
	VRAMUsedMB      float64
	VRAMPercent     float64
}
