package sensor

import (
	"procmon/internal/drm"
	"procmon/internal/logging"
)

// VRAMSensor measures used video memory in MB. Vendor tier: management-
// library memory info. Counter tier: the DRM VRAM counters of the first
// card. Capacity is the device total when the winning tier reports one,
// otherwise the configured estimate.
type VRAMSensor struct {
	tier       Tier
	name       string
	logger     *logging.Logger
	capacityMB float64

	vendor   *vendorSession
	counters *drm.Counters
}

// NewVRAMSensor probes backends in order and returns a sensor bound to the
// first one that works. Construction never fails.
func NewVRAMSensor(opts Options) *VRAMSensor {
	s := &VRAMSensor{logger: opts.Logger}

	session, err := probeVendor(opts.nvml(), opts.Logger)
	if err == nil {
		if info, readErr := session.device.MemoryInfo(); readErr == nil {
			s.tier = TierVendor
			s.name = sensorName(TierVendor, session.name)
			s.vendor = session
			s.capacityMB = float64(info.Total) / bytesPerMB
			if s.capacityMB <= 0 {
				s.capacityMB = opts.vramFallbackMB()
			}
			s.logProbe(nil)
			return s
		}
		session.close(opts.Logger)
	} else if opts.Logger != nil {
		opts.Logger.Debug("sensor.probe.fallback", "Vendor tier unavailable, trying DRM counters", map[string]interface{}{
			"metric": MetricVRAM.String(),
			"error":  err.Error(),
		})
	}

	counters, err := drm.New(opts.sysfsRoot(), opts.Logger)
	if err == nil {
		if _, readErr := counters.VRAMUsed(); readErr == nil {
			s.tier = TierCounter
			s.name = sensorName(TierCounter, counterName(counters))
			s.counters = counters
			if total, totalErr := counters.VRAMTotal(); totalErr == nil && total > 0 {
				s.capacityMB = float64(total) / bytesPerMB
			} else {
				s.capacityMB = opts.vramFallbackMB()
			}
			s.logProbe(nil)
			return s
		}
	}

	s.tier = TierNone
	s.name = "none"
	s.capacityMB = opts.vramFallbackMB()
	s.logProbe(err)
	return s
}

// Metric implements Sensor.
func (s *VRAMSensor) Metric() Metric { return MetricVRAM }

// Tier implements Sensor.
func (s *VRAMSensor) Tier() Tier { return s.tier }

// Name implements Sensor.
func (s *VRAMSensor) Name() string { return s.name }

// Sample returns used video memory in MB, 0 on any backend failure.
func (s *VRAMSensor) Sample() float64 {
	switch s.tier {
	case TierVendor:
		info, err := s.vendor.device.MemoryInfo()
		if err != nil {
			return 0
		}
		return float64(info.Used) / bytesPerMB
	case TierCounter:
		used, err := s.counters.VRAMUsed()
		if err != nil {
			return 0
		}
		return float64(used) / bytesPerMB
	default:
		return 0
	}
}

// Capacity returns total video memory in MB. Never zero.
func (s *VRAMSensor) Capacity() float64 {
	return s.capacityMB
}

// Close implements Sensor.
func (s *VRAMSensor) Close() {
	if s.vendor != nil {
		s.vendor.close(s.logger)
		s.vendor = nil
	}
}

func (s *VRAMSensor) logProbe(err error) {
	if s.logger == nil {
		return
	}
	payload := map[string]interface{}{
		"metric":      MetricVRAM.String(),
		"tier":        s.tier.String(),
		"name":        s.name,
		"capacity_mb": s.capacityMB,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.logger.Info("sensor.probe", "VRAM sensor bound", payload)
}
