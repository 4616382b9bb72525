package sensor

import (
	"errors"
	"fmt"

	"procmon/internal/gpu"
	"procmon/internal/logging"
)

// vendorSession is an initialized vendor binding holding device index 0.
// Each GPU sensor owns its own session; the library refcounts repeated
// initialization, so sessions tear down independently.
type vendorSession struct {
	binding gpu.NVML
	device  gpu.Device
	name    string
}

// probeVendor attempts the vendor tier: initialize the binding, require at
// least one device, bind device 0. On any failure every resource acquired
// so far is released before the error is returned.
func probeVendor(binding gpu.NVML, logger *logging.Logger) (*vendorSession, error) {
	if binding == nil {
		return nil, errors.New("vendor library not available in this build")
	}

	if err := binding.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize vendor library: %w", err)
	}

	count, err := binding.DeviceCount()
	if err != nil {
		shutdownQuiet(binding, logger)
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if count < 1 {
		shutdownQuiet(binding, logger)
		return nil, errors.New("no devices present")
	}

	device, err := binding.DeviceByIndex(0)
	if err != nil {
		shutdownQuiet(binding, logger)
		return nil, fmt.Errorf("failed to bind device 0: %w", err)
	}

	// Name is diagnostic only, failure to read it is not disqualifying
	name, err := device.Name()
	if err != nil {
		name = ""
	}

	if logger != nil {
		payload := map[string]interface{}{
			"devices": count,
			"device":  name,
		}
		if version, verErr := binding.DriverVersion(); verErr == nil {
			payload["driver"] = version
		}
		logger.Debug("sensor.vendor.bound", "Vendor library initialized", payload)
	}

	return &vendorSession{binding: binding, device: device, name: name}, nil
}

// close shuts the binding down. Teardown must never block shutdown, so
// failures are logged and swallowed.
func (s *vendorSession) close(logger *logging.Logger) {
	shutdownQuiet(s.binding, logger)
}

func shutdownQuiet(binding gpu.NVML, logger *logging.Logger) {
	if err := binding.Shutdown(); err != nil && logger != nil {
		logger.Warn("sensor.vendor.shutdown_failed", "Vendor library shutdown failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// sensorName formats the diagnostic name for a tier plus backend id.
func sensorName(tier Tier, backend string) string {
	if backend == "" {
		return tier.String()
	}
	return tier.String() + ":" + backend
}
