package sensor

import (
	"procmon/internal/logging"
)

// GPUVideoSensor measures video-engine utilization as a 0-100 percentage.
// Only the vendor tier can report it, and deliberately from the encoder
// statistic alone: decoder load is not folded in. There is no generic OS
// counter for the video engine, so without the vendor library the sensor
// reads a permanent 0.
type GPUVideoSensor struct {
	tier   Tier
	name   string
	logger *logging.Logger

	vendor *vendorSession
}

// NewGPUVideoSensor probes the vendor tier and returns a sensor bound to
// it, or a permanent zero source. Construction never fails.
func NewGPUVideoSensor(opts Options) *GPUVideoSensor {
	s := &GPUVideoSensor{logger: opts.Logger}

	session, err := probeVendor(opts.nvml(), opts.Logger)
	if err == nil {
		if _, readErr := session.device.EncoderUtilization(); readErr == nil {
			s.tier = TierVendor
			s.name = sensorName(TierVendor, session.name)
			s.vendor = session
			s.logProbe(nil)
			return s
		}
		// Device has no readable encoder statistic
		session.close(opts.Logger)
	}

	s.tier = TierNone
	s.name = "none"
	s.logProbe(err)
	return s
}

// Metric implements Sensor.
func (s *GPUVideoSensor) Metric() Metric { return MetricGPUVideo }

// Tier implements Sensor.
func (s *GPUVideoSensor) Tier() Tier { return s.tier }

// Name implements Sensor.
func (s *GPUVideoSensor) Name() string { return s.name }

// Sample returns encoder utilization, 0 on any backend failure.
func (s *GPUVideoSensor) Sample() float64 {
	if s.tier != TierVendor {
		return 0
	}
	util, err := s.vendor.device.EncoderUtilization()
	if err != nil {
		return 0
	}
	return clampPercent(float64(util))
}

// Close implements Sensor.
func (s *GPUVideoSensor) Close() {
	if s.vendor != nil {
		s.vendor.close(s.logger)
		s.vendor = nil
	}
}

func (s *GPUVideoSensor) logProbe(err error) {
	if s.logger == nil {
		return
	}
	payload := map[string]interface{}{
		"metric": MetricGPUVideo.String(),
		"tier":   s.tier.String(),
		"name":   s.name,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.logger.Info("sensor.probe", "GPU video sensor bound", payload)
}
