package gpu

// Memory reports device memory occupancy in bytes.
type Memory struct {
	Used  uint64
	Total uint64
}

// Utilization reports device engine utilization percentages over the last
// sampling window.
type Utilization struct {
	GPU    uint32
	Memory uint32
}

// Device is a handle to one GPU obtained from the management library.
type Device interface {
	Name() (string, error)
	MemoryInfo() (Memory, error)
	UtilizationRates() (Utilization, error)
	EncoderUtilization() (uint32, error)
}

// NVML is the narrow boundary to the vendor management library: initialize,
// enumerate, query one device, shut down. It is the only place foreign calls
// happen; everything above it consumes plain Go types and errors. NewNVML
// returns nil when the build excludes vendor support, which callers treat
// the same as a failing Init.
type NVML interface {
	Init() error
	Shutdown() error
	DeviceCount() (int, error)
	DeviceByIndex(index int) (Device, error)
	DriverVersion() (string, error)
}
