package sensor

import (
	"procmon/internal/gpu"
)

// mockNVML is a mock implementation of gpu.NVML for testing
type mockNVML struct {
	InitErr     error
	ShutdownErr error
	Count       int
	CountErr    error
	Driver      string
	DriverErr   error
	Devices     []*mockDevice
	DeviceErr   error

	InitCalls     int
	ShutdownCalls int
}

func (m *mockNVML) Init() error {
	m.InitCalls++
	return m.InitErr
}

func (m *mockNVML) Shutdown() error {
	m.ShutdownCalls++
	return m.ShutdownErr
}

func (m *mockNVML) DeviceCount() (int, error) {
	return m.Count, m.CountErr
}

func (m *mockNVML) DeviceByIndex(index int) (gpu.Device, error) {
	if m.DeviceErr != nil {
		return nil, m.DeviceErr
	}
	if index < 0 || index >= len(m.Devices) {
		return nil, errNoSuchDevice
	}
	return m.Devices[index], nil
}

func (m *mockNVML) DriverVersion() (string, error) {
	return m.Driver, m.DriverErr
}

// mockDevice represents a mock GPU device
type mockDevice struct {
	DeviceName  string
	NameErr     error
	MemUsed     uint64
	MemTotal    uint64
	MemErr      error
	UtilGPU     uint32
	UtilMemory  uint32
	UtilErr     error
	EncoderUtil uint32
	EncoderErr  error
}

func (d *mockDevice) Name() (string, error) {
	return d.DeviceName, d.NameErr
}

func (d *mockDevice) MemoryInfo() (gpu.Memory, error) {
	if d.MemErr != nil {
		return gpu.Memory{}, d.MemErr
	}
	return gpu.Memory{Used: d.MemUsed, Total: d.MemTotal}, nil
}

func (d *mockDevice) UtilizationRates() (gpu.Utilization, error) {
	if d.UtilErr != nil {
		return gpu.Utilization{}, d.UtilErr
	}
	return gpu.Utilization{GPU: d.UtilGPU, Memory: d.UtilMemory}, nil
}

func (d *mockDevice) EncoderUtilization() (uint32, error) {
	if d.EncoderErr != nil {
		return 0, d.EncoderErr
	}
	return d.EncoderUtil, nil
}
