package cli

import (
	"fmt"
	"io"
	"strings"

	"procmon/internal/monitor"
	"procmon/internal/session"
)

// consoleObserver prints session events for a human watching the terminal.
// Samples go to standard output in verbose mode only; errors always go to
// standard error.
type consoleObserver struct {
	settings monitor.Settings
	out      io.Writer
	errOut   io.Writer
	verbose  bool
}

func (o *consoleObserver) OnSample(sample monitor.Sample) {
	if !o.verbose {
		return
	}
	fmt.Fprintln(o.out, formatSample(o.settings, sample))
}

func (o *consoleObserver) OnError(err error) {
	fmt.Fprintf(o.errOut, "procmon: %v\n", err)
}

func (o *consoleObserver) OnStop(session.StopReason) {
	// The driver prints the session summary after the loop exits.
}

// formatSample renders one sample as a single line, showing only the
// enabled metrics in schema order.
func formatSample(settings monitor.Settings, sample monitor.Sample) string {
	parts := []string{sample.Timestamp.Format(monitor.TimestampLayout)}
	if settings.CPU {
		parts = append(parts, fmt.Sprintf("cpu %.1f%%", sample.CPUPercent))
	}
	if settings.RAM {
		parts = append(parts, fmt.Sprintf("ram %.1f MB (%.1f%%)", sample.RAMUsedMB, sample.RAMPercent))
	}
	if settings.GPUCore {
		parts = append(parts, fmt.Sprintf("gpu %.1f%%", sample.GPUCorePercent))
	}
	if settings.GPUVideo {
		parts = append(parts, fmt.Sprintf("video %.1f%%", sample.GPUVideoPercent))
	}
	if settings.VRAM {
		parts = append(parts, fmt.Sprintf("vram %.1f MB (%.1f%%)", sample.VRAMUsedMB, sample.VRAMPercent))
	}
	return strings.Join(parts, " | ")
}

// reasonText maps a stop reason onto the message shown to the user.
func reasonText(reason session.StopReason) string {
	switch reason {
	case session.ReasonStopRequested:
		return "stop requested"
	case session.ReasonDurationElapsed:
		return "duration elapsed"
	case session.ReasonProcessExited:
		return "target process exited"
	case session.ReasonContextCancelled:
		return "cancelled"
	case session.ReasonError:
		return "error"
	default:
		return "unknown"
	}
}
