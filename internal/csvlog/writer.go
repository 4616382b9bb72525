// Package csvlog persists monitoring samples as CSV, one file per session.
// The header is committed exactly once per file and reflects the metric set
// enabled at session start; every appended row is flushed so a killed
// process leaves a readable file behind.
package csvlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"procmon/internal/logging"
	"procmon/internal/monitor"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("csvlog: writer closed")

// fileTimestampLayout names log files by session start time.
const fileTimestampLayout = "20060102_150405"

// column binds a header cell to its settings gate and sample field.
type column struct {
	header  string
	enabled func(monitor.Settings) bool
	value   func(monitor.Sample) float64
}

// Column order is fixed; disabled metrics are omitted, never reordered.
var columns = []column{
	{
		header:  "CPU Load (%)",
		enabled: func(s monitor.Settings) bool { return s.CPU },
		value:   func(s monitor.Sample) float64 { return s.CPUPercent },
	},
	{
		header:  "RAM Usage (MB)",
		enabled: func(s monitor.Settings) bool { return s.RAM },
		value:   func(s monitor.Sample) float64 { return s.RAMUsedMB },
	},
	{
		header:  "RAM Usage (%)",
		enabled: func(s monitor.Settings) bool { return s.RAM },
		value:   func(s monitor.Sample) float64 { return s.RAMPercent },
	},
	{
		header:  "GPU Core Load (%)",
		enabled: func(s monitor.Settings) bool { return s.GPUCore },
		value:   func(s monitor.Sample) float64 { return s.GPUCorePercent },
	},
	{
		header:  "GPU Video Engine (%)",
		enabled: func(s monitor.Settings) bool { return s.GPUVideo },
		value:   func(s monitor.Sample) float64 { return s.GPUVideoPercent },
	},
	{
		header:  "GPU VRAM Usage (MB)",
		enabled: func(s monitor.Settings) bool { return s.VRAM },
		value:   func(s monitor.Sample) float64 { return s.VRAMUsedMB },
	},
	{
		header:  "GPU VRAM Usage (%)",
		enabled: func(s monitor.Settings) bool { return s.VRAM },
		value:   func(s monitor.Sample) float64 { return s.VRAMPercent },
	},
}

// Writer appends samples to one CSV file. Append runs on the sampling
// goroutine; Open and Close belong to the session owner.
type Writer struct {
	logger *logging.Logger
	file   *os.File
	csv    *csv.Writer
	path   string
	fields []func(monitor.Sample) float64
	closed bool
}

// Open creates (or reopens) the session's log file and commits the header.
// The path derives from the settings: an explicit file name ending in .csv
// is used as-is, anything else acts as a prefix that gets the process name,
// the session start timestamp and the extension appended. A reopened
// non-empty file keeps its existing header.
func Open(settings monitor.Settings, processName string, start time.Time, logger *logging.Logger) (*Writer, error) {
	path := logPath(settings, processName, start)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	needHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		needHeader = false
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // #nosec G304 -- path derives from validated settings
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	w := &Writer{
		logger: logger,
		file:   file,
		csv:    csv.NewWriter(file),
		path:   path,
	}

	header := []string{"Timestamp"}
	for _, col := range columns {
		if col.enabled(settings) {
			header = append(header, col.header)
			w.fields = append(w.fields, col.value)
		}
	}

	if needHeader {
		if err := w.writeRecord(header); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	if logger != nil {
		logger.Info("csvlog.opened", "Log file opened", map[string]interface{}{
			"path":    path,
			"columns": len(header),
			"header":  needHeader,
		})
	}
	return w, nil
}

// Path returns the resolved log file location.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one row in header order and flushes it to disk.
func (w *Writer) Append(sample monitor.Sample) error {
	if w.closed {
		return ErrClosed
	}

	record := make([]string, 0, len(w.fields)+1)
	record = append(record, sample.Timestamp.Format(monitor.TimestampLayout))
	for _, field := range w.fields {
		record = append(record, strconv.FormatFloat(field(sample), 'f', 2, 64))
	}
	if err := w.writeRecord(record); err != nil {
		return fmt.Errorf("failed to append sample: %w", err)
	}
	return nil
}

// Close flushes and releases the file. Idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()

	if w.logger != nil {
		w.logger.Info("csvlog.closed", "Log file closed", map[string]interface{}{
			"path": w.path,
		})
	}
	if flushErr != nil {
		return fmt.Errorf("failed to flush log file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close log file: %w", closeErr)
	}
	return nil
}

func (w *Writer) writeRecord(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// logPath resolves the output file location from the settings.
func logPath(settings monitor.Settings, processName string, start time.Time) string {
	name := settings.LogFilename
	if name == "" {
		name = settings.FilePrefix
	}
	if !strings.HasSuffix(name, ".csv") {
		name = fmt.Sprintf("%s-%s-%s.csv", name, sanitizeName(processName), start.Format(fileTimestampLayout))
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(settings.LogDir, name)
}

// sanitizeName strips path separators so a process name can never escape
// the log directory.
func sanitizeName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(name)
}
