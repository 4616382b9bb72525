package sensor

import (
	"testing"
)

const gib = 1024 * 1024 * 1024

func TestNewVRAMSensor_VendorTier(t *testing.T) {
	dev := &mockDevice{DeviceName: "GeForce RTX 3080", MemUsed: 2 * gib, MemTotal: 8 * gib}
	nvml := &mockNVML{Count: 1, Devices: []*mockDevice{dev}}

	s := NewVRAMSensor(Options{NVML: nvml, SysfsRoot: t.TempDir()})

	if s.Tier() != TierVendor {
		t.Fatalf("Expected vendor tier, got %s", s.Tier())
	}
	if got := s.Sample(); got != 2048 {
		t.Errorf("Expected sample 2048, got %v", got)
	}
	if got := s.Capacity(); got != 8192 {
		t.Errorf("Expected capacity 8192, got %v", got)
	}

	s.Close()
	if nvml.ShutdownCalls != 1 {
		t.Errorf("Expected 1 shutdown call, got %d", nvml.ShutdownCalls)
	}
}

func TestNewVRAMSensor_VendorZeroTotalUsesFallback(t *testing.T) {
	dev := &mockDevice{MemUsed: 0, MemTotal: 0}
	nvml := &mockNVML{Count: 1, Devices: []*mockDevice{dev}}

	s := NewVRAMSensor(Options{NVML: nvml, SysfsRoot: t.TempDir(), VRAMFallbackMB: 6144})
	defer s.Close()

	if s.Tier() != TierVendor {
		t.Fatalf("Expected vendor tier, got %s", s.Tier())
	}
	if got := s.Capacity(); got != 6144 {
		t.Errorf("Expected fallback capacity 6144, got %v", got)
	}
}

func TestNewVRAMSensor_CounterFallback(t *testing.T) {
	root := t.TempDir()
	writeSysfsCard(t, root, "card0", map[string]string{
		"mem_info_vram_used":  "1073741824\n",
		"mem_info_vram_total": "8589934592\n",
	})
	nvml := &mockNVML{InitErr: errProbeDenied}

	s := NewVRAMSensor(Options{NVML: nvml, SysfsRoot: root})
	defer s.Close()

	if s.Tier() != TierCounter {
		t.Fatalf("Expected counter tier, got %s", s.Tier())
	}
	if s.Name() != "counter:card0" {
		t.Errorf("Expected name counter:card0, got %q", s.Name())
	}
	if got := s.Sample(); got != 1024 {
		t.Errorf("Expected sample 1024, got %v", got)
	}
	if got := s.Capacity(); got != 8192 {
		t.Errorf("Expected capacity 8192, got %v", got)
	}
}

func TestNewVRAMSensor_CounterWithoutTotalUsesFallback(t *testing.T) {
	root := t.TempDir()
	writeSysfsCard(t, root, "card0", map[string]string{
		"mem_info_vram_used": "1073741824\n",
	})
	nvml := &mockNVML{InitErr: errProbeDenied}

	s := NewVRAMSensor(Options{NVML: nvml, SysfsRoot: root, VRAMFallbackMB: 6144})
	defer s.Close()

	if s.Tier() != TierCounter {
		t.Fatalf("Expected counter tier, got %s", s.Tier())
	}
	if got := s.Capacity(); got != 6144 {
		t.Errorf("Expected fallback capacity 6144, got %v", got)
	}
}

func TestNewVRAMSensor_NoBackend(t *testing.T) {
	nvml := &mockNVML{InitErr: errProbeDenied}
	s := NewVRAMSensor(Options{NVML: nvml, SysfsRoot: t.TempDir()})
	defer s.Close()

	if s.Tier() != TierNone {
		t.Fatalf("Expected tier none, got %s", s.Tier())
	}
	if got := s.Sample(); got != 0 {
		t.Errorf("Expected 0 from unavailable sensor, got %v", got)
	}
	if got := s.Capacity(); got != DefaultVRAMFallbackMB {
		t.Errorf("Expected fallback capacity %v, got %v", float64(DefaultVRAMFallbackMB), got)
	}
}

func TestVRAMSensor_SampleFailureReturnsZero(t *testing.T) {
	dev := &mockDevice{MemUsed: 2 * gib, MemTotal: 8 * gib}
	nvml := &mockNVML{Count: 1, Devices: []*mockDevice{dev}}

	s := NewVRAMSensor(Options{NVML: nvml, SysfsRoot: t.TempDir()})
	defer s.Close()

	dev.MemErr = errProbeDenied
	if got := s.Sample(); got != 0 {
		t.Errorf("Expected 0 after device failure, got %v", got)
	}
	if got := s.Capacity(); got != 8192 {
		t.Errorf("Expected capacity to stay 8192, got %v", got)
	}
}
