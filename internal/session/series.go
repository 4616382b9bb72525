package session

import (
	"sync"

	"procmon/internal/monitor"
)

// Series maintains a count-bounded in-memory window of recent samples.
// The loop appends from the sampling goroutine; readers may snapshot from
// anywhere.
type Series struct {
	mu       sync.RWMutex
	samples  []monitor.Sample
	capacity int
}

// NewSeries creates a series holding at most capacity samples. Capacities
// below one are raised to one.
func NewSeries(capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{
		samples:  make([]monitor.Sample, 0, capacity),
		capacity: capacity,
	}
}

// Add appends a sample, evicting the oldest once the window is full.
func (s *Series) Add(sample monitor.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, sample)
	if len(s.samples) > s.capacity {
		s.samples = s.samples[len(s.samples)-s.capacity:]
	}
}

// Len returns the current number of retained samples.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Last returns the most recent sample, if any.
func (s *Series) Last() (monitor.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.samples) == 0 {
		return monitor.Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Snapshot returns the retained samples in chronological order.
func (s *Series) Snapshot() []monitor.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]monitor.Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Stats summarizes the retained window.
type Stats struct {
	Count int

	AvgCPUPercent  float64
	PeakCPUPercent float64
	AvgRAMUsedMB   float64
	PeakRAMUsedMB  float64
	AvgGPUCore     float64
	PeakGPUCore    float64
	AvgGPUVideo    float64
	PeakGPUVideo   float64
	AvgVRAMUsedMB  float64
	PeakVRAMUsedMB float64
}

// Stats computes averages and peaks over the retained samples.
func (s *Series) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Count: len(s.samples)}
	if stats.Count == 0 {
		return stats
	}

	for _, sample := range s.samples {
		stats.AvgCPUPercent += sample.CPUPercent
		stats.AvgRAMUsedMB += sample.RAMUsedMB
		stats.AvgGPUCore += sample.GPUCorePercent
		stats.AvgGPUVideo += sample.GPUVideoPercent
		stats.AvgVRAMUsedMB += sample.VRAMUsedMB

		if sample.CPUPercent > stats.PeakCPUPercent {
			stats.PeakCPUPercent = sample.CPUPercent
		}
		if sample.RAMUsedMB > stats.PeakRAMUsedMB {
			stats.PeakRAMUsedMB = sample.RAMUsedMB
		}
		if sample.GPUCorePercent > stats.PeakGPUCore {
			stats.PeakGPUCore = sample.GPUCorePercent
		}
		if sample.GPUVideoPercent > stats.PeakGPUVideo {
			stats.PeakGPUVideo = sample.GPUVideoPercent
		}
		if sample.VRAMUsedMB > stats.PeakVRAMUsedMB {
			stats.PeakVRAMUsedMB = sample.VRAMUsedMB
		}
	}

	n := float64(stats.Count)
	stats.AvgCPUPercent /= n
	stats.AvgRAMUsedMB /= n
	stats.AvgGPUCore /= n
	stats.AvgGPUVideo /= n
	stats.AvgVRAMUsedMB /= n
	return stats
}

// Reset clears the window.
func (s *Series) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = s.samples[:0]
}
