package sensor

import (
	"procmon/internal/drm"
	"procmon/internal/logging"
)

// GPUCoreSensor measures GPU core utilization as a 0-100 percentage.
// Vendor tier: management-library utilization rates. Counter tier: the DRM
// busy counter of the first card.
type GPUCoreSensor struct {
	tier   Tier
	name   string
	logger *logging.Logger

	vendor   *vendorSession
	counters *drm.Counters
}

// NewGPUCoreSensor probes backends in order and returns a sensor bound to
// the first one that works. Construction never fails.
func NewGPUCoreSensor(opts Options) *GPUCoreSensor {
	s := &GPUCoreSensor{logger: opts.Logger}

	session, err := probeVendor(opts.nvml(), opts.Logger)
	if err == nil {
		if _, readErr := session.device.UtilizationRates(); readErr == nil {
			s.tier = TierVendor
			s.name = sensorName(TierVendor, session.name)
			s.vendor = session
			s.logProbe(nil)
			return s
		}
		session.close(opts.Logger)
	} else if opts.Logger != nil {
		opts.Logger.Debug("sensor.probe.fallback", "Vendor tier unavailable, trying DRM counters", map[string]interface{}{
			"metric": MetricGPUCore.String(),
			"error":  err.Error(),
		})
	}

	counters, err := drm.New(opts.sysfsRoot(), opts.Logger)
	if err == nil {
		if _, readErr := counters.BusyPercent(); readErr == nil {
			s.tier = TierCounter
			s.name = sensorName(TierCounter, counterName(counters))
			s.counters = counters
			s.logProbe(nil)
			return s
		}
	}

	s.tier = TierNone
	s.name = "none"
	s.logProbe(err)
	return s
}

// Metric implements Sensor.
func (s *GPUCoreSensor) Metric() Metric { return MetricGPUCore }

// Tier implements Sensor.
func (s *GPUCoreSensor) Tier() Tier { return s.tier }

// Name implements Sensor.
func (s *GPUCoreSensor) Name() string { return s.name }

// Sample returns GPU core utilization, 0 on any backend failure.
func (s *GPUCoreSensor) Sample() float64 {
	switch s.tier {
	case TierVendor:
		util, err := s.vendor.device.UtilizationRates()
		if err != nil {
			return 0
		}
		return clampPercent(float64(util.GPU))
	case TierCounter:
		busy, err := s.counters.BusyPercent()
		if err != nil {
			return 0
		}
		return clampPercent(busy)
	default:
		return 0
	}
}

// Close implements Sensor.
func (s *GPUCoreSensor) Close() {
	if s.vendor != nil {
		s.vendor.close(s.logger)
		s.vendor = nil
	}
}

// counterName resolves the diagnostic id for a DRM-backed tier: the PCI
// database's product name when the card's ids resolve, else the card id.
func counterName(c *drm.Counters) string {
	if product := c.DeviceName(); product != "" {
		return product
	}
	return c.Card()
}

func (s *GPUCoreSensor) logProbe(err error) {
	if s.logger == nil {
		return
	}
	payload := map[string]interface{}{
		"metric": MetricGPUCore.String(),
		"tier":   s.tier.String(),
		"name":   s.name,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.logger.Info("sensor.probe", "GPU core sensor bound", payload)
}
