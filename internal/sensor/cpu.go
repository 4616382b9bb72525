package sensor

import (
	"runtime"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/procfs"
	gcpu "github.com/shirou/gopsutil/v3/cpu"

	"procmon/internal/logging"
)

// Clock ticks per second for /proc stat times. The correct value comes from
// sysconf(_SC_CLK_TCK), which needs cgo; 100 is universal on modern kernels.
const userHz = 100

// CPUSensor measures the target's processor load as a 0-100 percentage of
// total machine capacity. Counter tier: the target's refreshed process
// accounting, normalized by core count. When that is unreadable it computes
// the delta manually from /proc stat times; the first sample after
// construction is a defined 0 because no prior delta exists.
type CPUSensor struct {
	tier   Tier
	name   string
	logger *logging.Logger
	target Target
	cores  float64

	// manual tier state
	manual   bool
	proc     procfs.Proc
	clk      clock.Clock
	lastCPU  float64
	lastWall time.Time
	primed   bool
}

// NewCPUSensor probes backends in order and returns a sensor bound to the
// first one that works. Construction never fails; with no working backend
// the sensor is a permanent zero source.
func NewCPUSensor(target Target, opts Options) *CPUSensor {
	s := &CPUSensor{
		logger: opts.Logger,
		target: target,
		cores:  float64(coreCount()),
		clk:    opts.clock(),
	}

	if err := target.ProbeCPU(); err == nil {
		s.tier = TierCounter
		s.name = "counter:process accounting"
		s.logProbe(nil)
		return s
	} else if opts.Logger != nil {
		opts.Logger.Debug("sensor.probe.fallback", "Process CPU accounting unavailable, trying /proc stat", map[string]interface{}{
			"metric": MetricCPU.String(),
			"error":  err.Error(),
		})
	}

	fs, err := procfs.NewFS(opts.procfsRoot())
	if err == nil {
		proc, procErr := fs.Proc(int(target.PID()))
		if procErr == nil {
			if _, statErr := proc.Stat(); statErr == nil {
				s.tier = TierCounter
				s.name = "counter:procfs"
				s.manual = true
				s.proc = proc
				s.logProbe(nil)
				return s
			}
		}
	}

	s.tier = TierNone
	s.name = "none"
	s.logProbe(err)
	return s
}

// Metric implements Sensor.
func (s *CPUSensor) Metric() Metric { return MetricCPU }

// Tier implements Sensor.
func (s *CPUSensor) Tier() Tier { return s.tier }

// Name implements Sensor.
func (s *CPUSensor) Name() string { return s.name }

// Sample returns the load percentage since the previous tick, 0 on any
// backend failure.
func (s *CPUSensor) Sample() float64 {
	switch {
	case s.tier != TierCounter:
		return 0
	case s.manual:
		return s.sampleManual()
	default:
		// Accounting reports utilization summed over all cores
		return clampPercent(s.target.CPUPercent() / s.cores)
	}
}

// sampleManual computes (processorTimeDelta / (cores * wallClockDelta)) * 100
// from /proc stat times.
func (s *CPUSensor) sampleManual() float64 {
	stat, err := s.proc.Stat()
	if err != nil {
		return 0
	}

	cpuSecs := (float64(stat.UTime) + float64(stat.STime)) / userHz
	now := s.clk.Now()

	if !s.primed {
		s.lastCPU = cpuSecs
		s.lastWall = now
		s.primed = true
		return 0
	}

	wallDelta := now.Sub(s.lastWall).Seconds()
	cpuDelta := cpuSecs - s.lastCPU
	s.lastCPU = cpuSecs
	s.lastWall = now

	if wallDelta <= 0 || cpuDelta < 0 {
		// Clock went backwards or the stat counters reset
		return 0
	}

	return clampPercent(cpuDelta / (s.cores * wallDelta) * 100)
}

// Close implements Sensor. The CPU backends hold no releasable resources.
func (s *CPUSensor) Close() {}

func (s *CPUSensor) logProbe(err error) {
	if s.logger == nil {
		return
	}
	payload := map[string]interface{}{
		"metric": MetricCPU.String(),
		"tier":   s.tier.String(),
		"name":   s.name,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.logger.Info("sensor.probe", "CPU sensor bound", payload)
}

// coreCount returns the number of logical cores, falling back to the
// runtime's view if the counter subsystem cannot say.
func coreCount() int {
	count, err := gcpu.Counts(true)
	if err != nil || count < 1 {
		return runtime.NumCPU()
	}
	return count
}
