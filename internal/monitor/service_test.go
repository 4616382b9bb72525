package monitor

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"procmon/internal/gpu"
	"procmon/internal/logging"
	"procmon/internal/sensor"
)

// fakeTarget is a sensor.Target double driven by the test.
type fakeTarget struct {
	pid         int32
	name        string
	probeCPUErr error
	probeMemErr error
	cpuPercent  float64
	rss         uint64

	// dieAfter stops IsRunning returning true after that many calls;
	// 0 means it never dies.
	dieAfter     int
	runningCalls int
	refreshCalls int
}

func (t *fakeTarget) PID() int32   { return t.pid }
func (t *fakeTarget) Name() string { return t.name }

func (t *fakeTarget) IsRunning() bool {
	t.runningCalls++
	return t.dieAfter == 0 || t.runningCalls <= t.dieAfter
}

func (t *fakeTarget) Refresh() error {
	t.refreshCalls++
	return nil
}

func (t *fakeTarget) ProbeCPU() error     { return t.probeCPUErr }
func (t *fakeTarget) ProbeMemory() error  { return t.probeMemErr }
func (t *fakeTarget) CPUPercent() float64 { return t.cpuPercent }
func (t *fakeTarget) RSS() uint64         { return t.rss }

// deadNVML keeps the vendor tier deterministically unavailable so tests do
// not depend on build tags or hardware.
type deadNVML struct{}

func (deadNVML) Init() error {
	return errors.New("no vendor library")
}

func (deadNVML) Shutdown() error {
	return nil
}

func (deadNVML) DeviceCount() (int, error) {
	return 0, nil
}

func (deadNVML) DeviceByIndex(int) (gpu.Device, error) {
	return nil, errors.New("no device")
}

func (deadNVML) DriverVersion() (string, error) {
	return "", errors.New("no vendor library")
}

func testService(t *testing.T) (*Service, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	logger := logging.NewWriterLogger(logging.LevelError, io.Discard)
	svc := New(logger, sensor.Options{
		NVML:       deadNVML{},
		SysfsRoot:  t.TempDir(),
		ProcfsRoot: t.TempDir(),
		Clock:      mock,
	})
	return svc, mock
}

func allMetrics() Settings {
	return Settings{
		Interval: 100 * time.Millisecond,
		CPU:      true,
		RAM:      true,
		GPUCore:  true,
		GPUVideo: true,
		VRAM:     true,
	}
}

func TestService_CollectBeforeInitialize(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.Collect(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestService_Initialize_InvalidSettings(t *testing.T) {
	svc, _ := testService(t)
	target := &fakeTarget{pid: 42, name: "worker"}

	settings := allMetrics()
	settings.Interval = 5 * time.Millisecond
	if err := svc.Initialize(context.Background(), target, settings); err == nil {
		t.Error("Expected error for interval below minimum")
	}

	settings = Settings{Interval: 100 * time.Millisecond}
	if err := svc.Initialize(context.Background(), target, settings); err == nil {
		t.Error("Expected error for no enabled metrics")
	}
}

func TestService_Initialize_TargetNotRunning(t *testing.T) {
	svc, _ := testService(t)
	target := &fakeTarget{pid: 42, name: "worker", dieAfter: -1}

	err := svc.Initialize(context.Background(), target, allMetrics())
	if !errors.Is(err, ErrTargetNotRunning) {
		t.Errorf("Expected ErrTargetNotRunning, got %v", err)
	}
}

func TestService_Initialize_TargetDiesMidConstruction(t *testing.T) {
	svc, _ := testService(t)
	target := &fakeTarget{pid: 42, name: "worker", dieAfter: 2}

	err := svc.Initialize(context.Background(), target, allMetrics())
	if !errors.Is(err, ErrTargetNotRunning) {
		t.Fatalf("Expected ErrTargetNotRunning, got %v", err)
	}
	if _, err := svc.Collect(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected service to stay uninitialized, got %v", err)
	}
}

func TestService_Initialize_CancelledContext(t *testing.T) {
	svc, _ := testService(t)
	target := &fakeTarget{pid: 42, name: "worker"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Initialize(ctx, target, allMetrics()); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestService_Initialize_Twice(t *testing.T) {
	svc, _ := testService(t)
	target := &fakeTarget{pid: 42, name: "worker"}

	if err := svc.Initialize(context.Background(), target, allMetrics()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer svc.Close()

	if err := svc.Initialize(context.Background(), target, allMetrics()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestService_Collect(t *testing.T) {
	svc, mock := testService(t)
	target := &fakeTarget{pid: 42, name: "worker", cpuPercent: 50, rss: 256 * 1024 * 1024}

	if err := svc.Initialize(context.Background(), target, allMetrics()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer svc.Close()

	mock.Add(time.Second)
	sample, err := svc.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if !sample.Timestamp.Equal(mock.Now()) {
		t.Errorf("Expected timestamp %v, got %v", mock.Now(), sample.Timestamp)
	}
	if sample.RAMUsedMB != 256 {
		t.Errorf("Expected 256 MB resident, got %v", sample.RAMUsedMB)
	}
	if sample.RAMPercent <= 0 || sample.RAMPercent > 100 {
		t.Errorf("Expected RAM percent in (0, 100], got %v", sample.RAMPercent)
	}
	// No vendor library and no DRM cards in the fixture tree.
	if sample.GPUCorePercent != 0 || sample.GPUVideoPercent != 0 || sample.VRAMUsedMB != 0 {
		t.Errorf("Expected zeroed GPU metrics, got %+v", sample)
	}
	if target.refreshCalls != 1 {
		t.Errorf("Expected exactly one refresh per tick, got %d", target.refreshCalls)
	}
}

func TestService_Collect_DisabledMetricsStayZero(t *testing.T) {
	svc, _ := testService(t)
	target := &fakeTarget{pid: 42, name: "worker", cpuPercent: 50, rss: 256 * 1024 * 1024}

	settings := Settings{Interval: 100 * time.Millisecond, CPU: true}
	if err := svc.Initialize(context.Background(), target, settings); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer svc.Close()

	sample, err := svc.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if sample.RAMUsedMB != 0 || sample.RAMPercent != 0 {
		t.Errorf("Expected disabled RAM metric to stay zero, got %+v", sample)
	}
}

func TestService_HasEnabledSensors(t *testing.T) {
	svc, _ := testService(t)
	if svc.HasEnabledSensors() {
		t.Error("Expected no sensors before initialization")
	}

	target := &fakeTarget{pid: 42, name: "worker"}
	if err := svc.Initialize(context.Background(), target, allMetrics()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !svc.HasEnabledSensors() {
		t.Error("Expected sensors after initialization")
	}

	svc.Close()
	if svc.HasEnabledSensors() {
		t.Error("Expected no sensors after close")
	}
}

func TestService_Descriptions(t *testing.T) {
	svc, _ := testService(t)
	target := &fakeTarget{pid: 42, name: "worker"}

	settings := Settings{Interval: 100 * time.Millisecond, CPU: true, RAM: true}
	if err := svc.Initialize(context.Background(), target, settings); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer svc.Close()

	descs := svc.Descriptions()
	if len(descs) != 2 {
		t.Fatalf("Expected 2 descriptions, got %d", len(descs))
	}
	if descs[0].Metric != "cpu" || descs[1].Metric != "ram" {
		t.Errorf("Expected construction order cpu, ram; got %s, %s", descs[0].Metric, descs[1].Metric)
	}
}

func TestService_Close_Idempotent(t *testing.T) {
	svc, _ := testService(t)
	target := &fakeTarget{pid: 42, name: "worker"}

	if err := svc.Initialize(context.Background(), target, allMetrics()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	svc.Close()
	svc.Close()

	if _, err := svc.Collect(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}
	if err := svc.Initialize(context.Background(), target, allMetrics()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed on reinitialize, got %v", err)
	}
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		used     float64
		capacity float64
		expected float64
	}{
		{512, 1024, 50},
		{0, 1024, 0},
		{5, 0, 0},
		{2000, 1024, 100},
	}

	for _, tt := range tests {
		if got := percentOf(tt.used, tt.capacity); got != tt.expected {
			t.Errorf("percentOf(%v, %v) = %v, expected %v", tt.used, tt.capacity, got, tt.expected)
		}
	}
}
