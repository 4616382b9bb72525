package procs

import (
	"os"
	"testing"
)

func TestNewTarget_Self(t *testing.T) {
	target, err := NewTarget(int32(os.Getpid()), nil)
	if err != nil {
		t.Fatalf("NewTarget() returned error: %v", err)
	}

	if target.PID() != int32(os.Getpid()) {
		t.Errorf("Expected pid %d, got %d", os.Getpid(), target.PID())
	}

	if target.Name() == "" {
		t.Error("Expected non-empty target name")
	}

	if !target.IsRunning() {
		t.Error("Expected own process to be running")
	}
}

func TestNewTarget_NoSuchProcess(t *testing.T) {
	// Above the default kernel pid ceiling, cannot exist
	if _, err := NewTarget(1<<30, nil); err == nil {
		t.Error("NewTarget() should return error for a nonexistent pid")
	}
}

func TestTarget_Probes(t *testing.T) {
	target, err := NewTarget(int32(os.Getpid()), nil)
	if err != nil {
		t.Fatalf("NewTarget() returned error: %v", err)
	}

	if err := target.ProbeCPU(); err != nil {
		t.Errorf("ProbeCPU() returned error: %v", err)
	}

	if err := target.ProbeMemory(); err != nil {
		t.Errorf("ProbeMemory() returned error: %v", err)
	}
}

func TestTarget_Refresh(t *testing.T) {
	target, err := NewTarget(int32(os.Getpid()), nil)
	if err != nil {
		t.Fatalf("NewTarget() returned error: %v", err)
	}

	if err := target.Refresh(); err != nil {
		t.Fatalf("Refresh() returned error: %v", err)
	}

	if target.RSS() == 0 {
		t.Error("Expected non-zero RSS for own process after Refresh()")
	}

	// Utilization since the previous refresh must stay a sane percentage
	if target.CPUPercent() < 0 {
		t.Errorf("Expected non-negative CPU percent, got %f", target.CPUPercent())
	}
}
