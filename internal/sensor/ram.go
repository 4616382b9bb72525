package sensor

import (
	"os"

	"github.com/prometheus/procfs"
	"github.com/shirou/gopsutil/v3/mem"

	"procmon/internal/logging"
)

// RAMSensor measures the target's resident set size in MB. Counter tier:
// the target's refreshed memory accounting; manual fallback reads resident
// pages from /proc stat. Capacity is the machine's physical memory when any
// backend can report it, otherwise the configured estimate.
type RAMSensor struct {
	tier       Tier
	name       string
	logger     *logging.Logger
	target     Target
	capacityMB float64

	manual   bool
	proc     procfs.Proc
	pageSize float64
}

// NewRAMSensor probes backends in order and returns a sensor bound to the
// first one that works. Construction never fails.
func NewRAMSensor(target Target, opts Options) *RAMSensor {
	s := &RAMSensor{
		logger:   opts.Logger,
		target:   target,
		pageSize: float64(os.Getpagesize()),
	}

	fs, fsErr := procfs.NewFS(opts.procfsRoot())

	if err := target.ProbeMemory(); err == nil {
		s.tier = TierCounter
		s.name = "counter:process accounting"
		s.capacityMB = s.systemMemoryMB(fs, fsErr, opts)
		s.logProbe(nil)
		return s
	} else if opts.Logger != nil {
		opts.Logger.Debug("sensor.probe.fallback", "Process memory accounting unavailable, trying /proc stat", map[string]interface{}{
			"metric": MetricRAM.String(),
			"error":  err.Error(),
		})
	}

	if fsErr == nil {
		proc, procErr := fs.Proc(int(target.PID()))
		if procErr == nil {
			if _, statErr := proc.Stat(); statErr == nil {
				s.tier = TierCounter
				s.name = "counter:procfs"
				s.manual = true
				s.proc = proc
				s.capacityMB = s.systemMemoryMB(fs, nil, opts)
				s.logProbe(nil)
				return s
			}
		}
	}

	s.tier = TierNone
	s.name = "none"
	s.capacityMB = opts.ramFallbackMB()
	s.logProbe(fsErr)
	return s
}

// Metric implements Sensor.
func (s *RAMSensor) Metric() Metric { return MetricRAM }

// Tier implements Sensor.
func (s *RAMSensor) Tier() Tier { return s.tier }

// Name implements Sensor.
func (s *RAMSensor) Name() string { return s.name }

// Sample returns the resident set size in MB, 0 on any backend failure.
func (s *RAMSensor) Sample() float64 {
	switch {
	case s.tier != TierCounter:
		return 0
	case s.manual:
		stat, err := s.proc.Stat()
		if err != nil {
			return 0
		}
		return float64(stat.RSS) * s.pageSize / bytesPerMB
	default:
		return float64(s.target.RSS()) / bytesPerMB
	}
}

// Capacity returns total system memory in MB. Never zero.
func (s *RAMSensor) Capacity() float64 {
	return s.capacityMB
}

// Close implements Sensor. The RAM backends hold no releasable resources.
func (s *RAMSensor) Close() {}

// systemMemoryMB resolves the capacity denominator: the counter subsystem's
// total first, /proc meminfo second, the configured estimate last.
func (s *RAMSensor) systemMemoryMB(fs procfs.FS, fsErr error, opts Options) float64 {
	if vm, err := mem.VirtualMemory(); err == nil && vm.Total > 0 {
		return float64(vm.Total) / bytesPerMB
	}

	if fsErr == nil {
		if info, err := fs.Meminfo(); err == nil && info.MemTotal != nil && *info.MemTotal > 0 {
			// meminfo reports kB
			return float64(*info.MemTotal) / 1024
		}
	}

	return opts.ramFallbackMB()
}

func (s *RAMSensor) logProbe(err error) {
	if s.logger == nil {
		return
	}
	payload := map[string]interface{}{
		"metric":      MetricRAM.String(),
		"tier":        s.tier.String(),
		"name":        s.name,
		"capacity_mb": s.capacityMB,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.logger.Info("sensor.probe", "RAM sensor bound", payload)
}
