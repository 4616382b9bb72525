package procs

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"procmon/internal/logging"
)

// Target is the process under measurement. It caches one accounting
// snapshot per Refresh so every sensor reading in a tick sees the same
// values. All methods are called from the sampling goroutine only.
type Target struct {
	pid    int32
	name   string
	proc   *process.Process
	logger *logging.Logger

	// last Refresh snapshot
	cpuPercent float64
	rss        uint64
}

// NewTarget binds to a running process by PID.
func NewTarget(pid int32, logger *logging.Logger) (*Target, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}

	name, err := proc.Name()
	if err != nil {
		return nil, fmt.Errorf("failed to read name of process %d: %w", pid, err)
	}

	if logger != nil {
		logger.Debug("target.bound", "Bound to target process", map[string]interface{}{
			"pid":  pid,
			"name": name,
		})
	}

	return &Target{
		pid:    pid,
		name:   name,
		proc:   proc,
		logger: logger,
	}, nil
}

// PID returns the target's process id.
func (t *Target) PID() int32 {
	return t.pid
}

// Name returns the target's process name.
func (t *Target) Name() string {
	return t.name
}

// IsRunning reports whether the process still exists. Errors count as not
// running: a target we can no longer interrogate cannot be sampled.
func (t *Target) IsRunning() bool {
	running, err := t.proc.IsRunning()
	if err != nil {
		return false
	}
	return running
}

// ProbeCPU verifies CPU accounting is readable and primes the utilization
// baseline so the first sampled value is a defined 0.
func (t *Target) ProbeCPU() error {
	if _, err := t.proc.Percent(0); err != nil {
		return fmt.Errorf("failed to read cpu accounting: %w", err)
	}
	return nil
}

// ProbeMemory verifies memory accounting is readable.
func (t *Target) ProbeMemory() error {
	if _, err := t.proc.MemoryInfo(); err != nil {
		return fmt.Errorf("failed to read memory accounting: %w", err)
	}
	return nil
}

// Refresh updates the accounting snapshot. Called exactly once per tick,
// before any sensor samples. A part that cannot be read is zeroed; the
// returned error is diagnostic only.
func (t *Target) Refresh() error {
	var firstErr error

	percent, err := t.proc.Percent(0)
	if err != nil {
		t.cpuPercent = 0
		firstErr = fmt.Errorf("failed to refresh cpu accounting: %w", err)
	} else {
		t.cpuPercent = percent
	}

	mem, err := t.proc.MemoryInfo()
	if err != nil {
		t.rss = 0
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to refresh memory accounting: %w", err)
		}
	} else {
		t.rss = mem.RSS
	}

	return firstErr
}

// CPUPercent returns the utilization since the previous Refresh, summed
// over all cores (200 means two cores fully busy).
func (t *Target) CPUPercent() float64 {
	return t.cpuPercent
}

// RSS returns the resident set size in bytes as of the last Refresh.
func (t *Target) RSS() uint64 {
	return t.rss
}
