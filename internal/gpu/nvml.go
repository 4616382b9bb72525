//go:build cuda

package gpu

import (
	"errors"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// realNVML implements NVML using the actual management library.
type realNVML struct{}

// NewNVML returns the real management-library binding.
func NewNVML() NVML {
	return realNVML{}
}

func (realNVML) Init() error {
	return errorOf(nvml.Init())
}

func (realNVML) Shutdown() error {
	return errorOf(nvml.Shutdown())
}

func (realNVML) DeviceCount() (int, error) {
	count, ret := nvml.DeviceGetCount()
	return count, errorOf(ret)
}

func (realNVML) DeviceByIndex(index int) (Device, error) {
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, errorOf(ret)
	}
	return deviceWrapper{device: device}, nil
}

func (realNVML) DriverVersion() (string, error) {
	version, ret := nvml.SystemGetDriverVersion()
	return version, errorOf(ret)
}

// deviceWrapper adapts nvml.Device to the Device interface.
type deviceWrapper struct {
	device nvml.Device
}

func (w deviceWrapper) Name() (string, error) {
	name, ret := w.device.GetName()
	return name, errorOf(ret)
}

func (w deviceWrapper) MemoryInfo() (Memory, error) {
	info, ret := w.device.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return Memory{}, errorOf(ret)
	}
	return Memory{Used: info.Used, Total: info.Total}, nil
}

func (w deviceWrapper) UtilizationRates() (Utilization, error) {
	util, ret := w.device.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return Utilization{}, errorOf(ret)
	}
	return Utilization{GPU: util.Gpu, Memory: util.Memory}, nil
}

func (w deviceWrapper) EncoderUtilization() (uint32, error) {
	util, _, ret := w.device.GetEncoderUtilization()
	if ret != nvml.SUCCESS {
		return 0, errorOf(ret)
	}
	return util, nil
}

// errorOf converts a library return code into a Go error.
func errorOf(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return errors.New(nvml.ErrorString(ret))
}
