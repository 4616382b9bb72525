// Package monitor aggregates the per-metric sensors into one collector
// bound to a single target process for the lifetime of a session.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"procmon/internal/logging"
	"procmon/internal/sensor"
)

var (
	// ErrNotInitialized is returned when Collect runs before Initialize.
	ErrNotInitialized = errors.New("monitor: not initialized")
	// ErrAlreadyInitialized is returned on a second Initialize.
	ErrAlreadyInitialized = errors.New("monitor: already initialized")
	// ErrClosed is returned once the service has been closed.
	ErrClosed = errors.New("monitor: closed")
	// ErrTargetNotRunning is returned when the target dies before or
	// during sensor construction.
	ErrTargetNotRunning = errors.New("monitor: target process not running")
)

type serviceState int

const (
	stateNew serviceState = iota
	stateReady
	stateClosed
)

// Service owns the sensors for one monitoring session. Initialize builds
// them in metric order, Collect reads them, Close releases them in reverse
// order. Collect is meant for a single sampling goroutine; Initialize and
// Close may race against it and are serialized internally.
type Service struct {
	logger *logging.Logger
	opts   sensor.Options
	clk    clock.Clock

	mu       sync.Mutex
	state    serviceState
	target   sensor.Target
	settings Settings
	sensors  []sensor.Sensor

	cpu   *sensor.CPUSensor
	ram   *sensor.RAMSensor
	core  *sensor.GPUCoreSensor
	video *sensor.GPUVideoSensor
	vram  *sensor.VRAMSensor
}

// New creates an uninitialized service. The sensor options template carries
// the backend injection points; its clock also timestamps samples.
func New(logger *logging.Logger, opts sensor.Options) *Service {
	opts.Logger = logger
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		logger: logger,
		opts:   opts,
		clk:    clk,
	}
}

// Initialize validates the settings, snapshots them and constructs one
// sensor per enabled metric in fixed order. A cancelled context or a target
// death mid-construction aborts cleanly: already-built sensors are released
// in reverse order and the service stays uninitialized.
func (s *Service) Initialize(ctx context.Context, target sensor.Target, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateClosed:
		return ErrClosed
	case stateReady:
		return ErrAlreadyInitialized
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if !target.IsRunning() {
		return fmt.Errorf("%w: %s (pid %d)", ErrTargetNotRunning, target.Name(), target.PID())
	}

	opts := s.opts
	opts.RAMFallbackMB = settings.RAMFallbackMB
	opts.VRAMFallbackMB = settings.VRAMFallbackMB

	var (
		built []sensor.Sensor
		cpu   *sensor.CPUSensor
		ram   *sensor.RAMSensor
		core  *sensor.GPUCoreSensor
		video *sensor.GPUVideoSensor
		vram  *sensor.VRAMSensor
	)
	abort := func(err error) error {
		closeAll(built)
		return err
	}
	guard := func() error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("initialization cancelled: %w", err)
		}
		if !target.IsRunning() {
			return fmt.Errorf("%w: %s (pid %d)", ErrTargetNotRunning, target.Name(), target.PID())
		}
		return nil
	}

	if settings.CPU {
		if err := guard(); err != nil {
			return abort(err)
		}
		cpu = sensor.NewCPUSensor(target, opts)
		built = append(built, cpu)
	}
	if settings.RAM {
		if err := guard(); err != nil {
			return abort(err)
		}
		ram = sensor.NewRAMSensor(target, opts)
		built = append(built, ram)
	}
	if settings.GPUCore {
		if err := guard(); err != nil {
			return abort(err)
		}
		core = sensor.NewGPUCoreSensor(opts)
		built = append(built, core)
	}
	if settings.GPUVideo {
		if err := guard(); err != nil {
			return abort(err)
		}
		video = sensor.NewGPUVideoSensor(opts)
		built = append(built, video)
	}
	if settings.VRAM {
		if err := guard(); err != nil {
			return abort(err)
		}
		vram = sensor.NewVRAMSensor(opts)
		built = append(built, vram)
	}

	s.cpu, s.ram, s.core, s.video, s.vram = cpu, ram, core, video, vram
	s.target = target
	s.settings = settings
	s.sensors = built
	s.state = stateReady

	s.logger.Info("monitor.initialized", "Monitoring service initialized", map[string]interface{}{
		"process":  target.Name(),
		"pid":      target.PID(),
		"interval": settings.Interval.String(),
		"duration": settings.Duration.String(),
		"sensors":  describePayload(built),
	})
	return nil
}

// Collect reads every enabled sensor into one sample. The target's
// accounting is refreshed exactly once first, so all counter-tier readings
// within the tick share a snapshot. Sensor-level failures degrade to zero;
// only calling in the wrong state yields an error.
func (s *Service) Collect() (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateNew:
		return Sample{}, ErrNotInitialized
	case stateClosed:
		return Sample{}, ErrClosed
	}

	if err := s.target.Refresh(); err != nil {
		// Sensors degrade to zero on a stale snapshot; the sampling
		// loop detects actual target exit via IsRunning.
		s.logger.Debug("monitor.refresh_failed", "Target accounting refresh failed", map[string]interface{}{
			"pid":   s.target.PID(),
			"error": err.Error(),
		})
	}

	sample := Sample{Timestamp: s.clk.Now()}
	if s.cpu != nil {
		sample.CPUPercent = s.cpu.Sample()
	}
	if s.ram != nil {
		sample.RAMUsedMB = s.ram.Sample()
		sample.RAMPercent = percentOf(sample.RAMUsedMB, s.ram.Capacity())
	}
	if s.core != nil {
		sample.GPUCorePercent = s.core.Sample()
	}
	if s.video != nil {
		sample.GPUVideoPercent = s.video.Sample()
	}
	if s.vram != nil {
		sample.VRAMUsedMB = s.vram.Sample()
		sample.VRAMPercent = percentOf(sample.VRAMUsedMB, s.vram.Capacity())
	}
	return sample, nil
}

// HasEnabledSensors reports whether the initialized service carries at
// least one sensor.
func (s *Service) HasEnabledSensors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateReady && len(s.sensors) > 0
}

// Settings returns the snapshot taken at Initialize.
func (s *Service) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Descriptions reports metric, tier and backend for each constructed
// sensor, in construction order.
func (s *Service) Descriptions() []sensor.Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sensor.Describe(s.sensors)
}

// Close releases all sensors in reverse construction order. Idempotent;
// a closed service only ever returns ErrClosed afterwards.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return
	}
	wasReady := s.state == stateReady
	s.state = stateClosed

	closeAll(s.sensors)
	s.sensors = nil
	s.cpu, s.ram, s.core, s.video, s.vram = nil, nil, nil, nil, nil

	if wasReady {
		s.logger.Info("monitor.closed", "Monitoring service closed", nil)
	}
}

// closeAll releases sensors in reverse construction order.
func closeAll(sensors []sensor.Sensor) {
	for i := len(sensors) - 1; i >= 0; i-- {
		sensors[i].Close()
	}
}

func percentOf(used, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	p := used / capacity * 100
	if p > 100 {
		return 100
	}
	return p
}

func describePayload(sensors []sensor.Sensor) []map[string]interface{} {
	descs := sensor.Describe(sensors)
	payload := make([]map[string]interface{}, 0, len(descs))
	for _, d := range descs {
		payload = append(payload, map[string]interface{}{
			"metric": d.Metric,
			"tier":   d.Tier,
			"name":   d.Name,
		})
	}
	return payload
}
