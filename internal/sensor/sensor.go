// Package sensor implements the measurement layer: one sensor per metric,
// each bound at construction time to the best available backend tier.
// Probing order is fixed: vendor management library first, OS counters
// second, a permanent zero source last. The chosen tier never changes for
// the lifetime of the sensor, even if another tier becomes available later.
package sensor

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/procfs"

	"procmon/internal/drm"
	"procmon/internal/gpu"
	"procmon/internal/logging"
)

// Metric identifies one of the five measured quantities.
type Metric int

const (
	MetricCPU Metric = iota
	MetricRAM
	MetricGPUCore
	MetricGPUVideo
	MetricVRAM
)

// String returns the metric's event-log code.
func (m Metric) String() string {
	switch m {
	case MetricCPU:
		return "cpu"
	case MetricRAM:
		return "ram"
	case MetricGPUCore:
		return "gpu_core"
	case MetricGPUVideo:
		return "gpu_video"
	case MetricVRAM:
		return "vram"
	default:
		return "unknown"
	}
}

// Tier identifies which backend class a sensor ended up bound to.
type Tier int

const (
	// TierNone means no backend was available; the sensor reads 0 forever.
	TierNone Tier = iota
	// TierVendor means the vendor management library serves the sensor.
	TierVendor
	// TierCounter means OS-level counters serve the sensor.
	TierCounter
)

// String returns the tier name used in diagnostics.
func (t Tier) String() string {
	switch t {
	case TierVendor:
		return "vendor"
	case TierCounter:
		return "counter"
	default:
		return "none"
	}
}

// Sensor reads one metric. Sample never fails: any backend error degrades
// to 0 so a struggling backend cannot destabilize the sampling cadence.
type Sensor interface {
	Metric() Metric
	Tier() Tier
	// Name reports the active tier and backend for diagnostics.
	Name() string
	Sample() float64
	// Close releases backend resources. Safe to call more than once;
	// release failures are logged, never surfaced.
	Close()
}

// CapacitySensor is implemented by the memory-class sensors (RAM, VRAM).
// Capacity returns the best known total in MB and is never zero, so it can
// safely serve as a percentage denominator.
type CapacitySensor interface {
	Sensor
	Capacity() float64
}

// Target is the sensors' view of the measured process. Refresh is invoked
// once per tick by the owner before any Sample call, so every sensor
// reading within a tick sees the same accounting snapshot.
type Target interface {
	PID() int32
	Name() string
	IsRunning() bool
	Refresh() error
	ProbeCPU() error
	ProbeMemory() error
	CPUPercent() float64
	RSS() uint64
}

// Description summarizes one constructed sensor for diagnostics.
type Description struct {
	Metric string
	Tier   string
	Name   string
}

// Describe reports metric, tier and backend for each sensor.
func Describe(sensors []Sensor) []Description {
	descriptions := make([]Description, 0, len(sensors))
	for _, s := range sensors {
		descriptions = append(descriptions, Description{
			Metric: s.Metric().String(),
			Tier:   s.Tier().String(),
			Name:   s.Name(),
		})
	}
	return descriptions
}

// Fallback capacities used when no backend reports a real total. Estimates
// only; they exist so percentage math never divides by zero.
const (
	DefaultRAMFallbackMB  = 8192
	DefaultVRAMFallbackMB = 4096
)

const bytesPerMB = 1024 * 1024

// Options configures sensor construction. The zero value selects the
// build's default vendor binding, the real /sys and /proc trees, the wall
// clock and the default capacity fallbacks.
type Options struct {
	Logger         *logging.Logger
	NVML           gpu.NVML
	SysfsRoot      string
	ProcfsRoot     string
	Clock          clock.Clock
	RAMFallbackMB  float64
	VRAMFallbackMB float64
}

func (o Options) nvml() gpu.NVML {
	if o.NVML != nil {
		return o.NVML
	}
	return gpu.NewNVML()
}

func (o Options) sysfsRoot() string {
	if o.SysfsRoot != "" {
		return o.SysfsRoot
	}
	return drm.DefaultSysfsRoot
}

func (o Options) procfsRoot() string {
	if o.ProcfsRoot != "" {
		return o.ProcfsRoot
	}
	return procfs.DefaultMountPoint
}

func (o Options) clock() clock.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return clock.New()
}

func (o Options) ramFallbackMB() float64 {
	if o.RAMFallbackMB > 0 {
		return o.RAMFallbackMB
	}
	return DefaultRAMFallbackMB
}

func (o Options) vramFallbackMB() float64 {
	if o.VRAMFallbackMB > 0 {
		return o.VRAMFallbackMB
	}
	return DefaultVRAMFallbackMB
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
