//go:build !cuda

package gpu

// NewNVML returns nil when vendor support is disabled. Sensor probing treats
// a nil binding as an unavailable vendor tier and falls through.
func NewNVML() NVML {
	return nil
}
