// Package cli implements the command-line front end: argument parsing,
// target resolution with interactive disambiguation, and the wiring of one
// monitoring session with interrupt handling.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procmon/internal/config"
	"procmon/internal/csvlog"
	"procmon/internal/logging"
	"procmon/internal/monitor"
	"procmon/internal/procs"
	"procmon/internal/sensor"
	"procmon/internal/session"
)

// Run executes one invocation end to end and returns the process exit
// code: 0 for success including help display, 1 for argument, validation,
// resolution and runtime errors.
func Run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	args, err := ParseArgs(argv)
	if err != nil {
		fmt.Fprintf(stderr, "procmon: %v\n\n%s", err, Usage())
		return 1
	}
	if args.Help {
		fmt.Fprint(stdout, Usage())
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "procmon: %v\n", err)
		return 1
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(stderr, "procmon: %v\n", err)
		return 1
	}
	if args.Verbose {
		level = logging.LevelDebug
	}

	var logger *logging.Logger
	if cfg.Logging.File != "" {
		logger, err = logging.NewFileLogger(level, cfg.Logging.File)
		if err != nil {
			fmt.Fprintf(stderr, "procmon: %v\n", err)
			return 1
		}
		defer logger.Close()
	} else {
		logger = logging.NewWriterLogger(level, stderr)
	}

	settings := buildSettings(args, cfg)
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(stderr, "procmon: invalid settings: %v\n", err)
		return 1
	}

	lister := procs.NewSystemLister(logger)
	info, err := resolveTarget(lister, args.ProcessName, stdin, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "procmon: %v\n", err)
		return 1
	}

	target, err := procs.NewTarget(info.PID, logger)
	if err != nil {
		fmt.Fprintf(stderr, "procmon: %v\n", err)
		return 1
	}

	return runSession(target, settings, cfg, args, logger, stdout, stderr)
}

// buildSettings merges CLI flags over configuration defaults into the
// session snapshot. Flags win only when actually given.
func buildSettings(args Args, cfg config.Config) monitor.Settings {
	interval := time.Duration(cfg.Sampling.IntervalMs) * time.Millisecond
	if args.IntervalSet {
		interval = time.Duration(args.IntervalMs) * time.Millisecond
	}
	duration := time.Duration(cfg.Sampling.DurationSeconds) * time.Second
	if args.DurationSet {
		duration = time.Duration(args.DurationSeconds) * time.Second
	}

	return monitor.Settings{
		Duration:       duration,
		Interval:       interval,
		CPU:            cfg.Metrics.CPU,
		RAM:            cfg.Metrics.RAM,
		GPUCore:        cfg.Metrics.GPUCore,
		GPUVideo:       cfg.Metrics.GPUVideo,
		VRAM:           cfg.Metrics.VRAM,
		LogEnabled:     true,
		LogDir:         cfg.LogDir,
		FilePrefix:     cfg.FilePrefix,
		LogFilename:    args.Filename,
		RAMFallbackMB:  float64(cfg.Capacity.RAMFallbackMB),
		VRAMFallbackMB: float64(cfg.Capacity.VRAMFallbackMB),
	}
}

// runSession owns the session lifetime: sensors, log file, sampling loop
// and interrupt handling.
func runSession(target *procs.Target, settings monitor.Settings, cfg config.Config, args Args, logger *logging.Logger, stdout, stderr io.Writer) int {
	ctx := context.Background()

	svc := monitor.New(logger, sensor.Options{})
	if err := svc.Initialize(ctx, target, settings); err != nil {
		fmt.Fprintf(stderr, "procmon: %v\n", err)
		return 1
	}
	defer svc.Close()

	var writer *csvlog.Writer
	var appender session.Appender
	if settings.LogEnabled {
		w, err := csvlog.Open(settings, target.Name(), time.Now(), logger)
		if err != nil {
			fmt.Fprintf(stderr, "procmon: %v\n", err)
			return 1
		}
		writer = w
		appender = w
		defer writer.Close()
	}

	series := session.NewSeries(cfg.Sampling.SeriesCapacity)
	loop := session.New(session.Config{
		Settings:  settings,
		Target:    target,
		Collector: svc,
		Appender:  appender,
		Series:    series,
		Observer: &consoleObserver{
			settings: settings,
			out:      stdout,
			errOut:   stderr,
			verbose:  args.Verbose,
		},
		Logger: logger,
	})

	fmt.Fprintf(stdout, "Monitoring %s (pid %d) every %s", target.Name(), target.PID(), settings.Interval)
	if settings.Duration > 0 {
		fmt.Fprintf(stdout, " for %s", settings.Duration)
	}
	fmt.Fprintln(stdout, ". Press Ctrl+C to stop.")
	if writer != nil {
		fmt.Fprintf(stdout, "Logging to %s\n", writer.Path())
	}
	if args.Verbose {
		for _, desc := range svc.Descriptions() {
			fmt.Fprintf(stdout, "sensor %s: %s\n", desc.Metric, desc.Name)
		}
	}

	if err := loop.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "procmon: %v\n", err)
		return 1
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range interrupts {
			logger.Info("cli.interrupt", "Interrupt received, stopping session", nil)
			loop.Stop()
		}
	}()

	loop.Wait()
	signal.Stop(interrupts)
	close(interrupts)

	stats := series.Stats()
	fmt.Fprintf(stdout, "Stopped (%s) after %d samples.\n", reasonText(loop.Reason()), stats.Count)
	if args.Verbose && stats.Count > 0 {
		printStats(stdout, settings, stats)
	}

	code := 0
	if writer != nil {
		if err := writer.Close(); err != nil {
			fmt.Fprintf(stderr, "procmon: %v\n", err)
			code = 1
		}
	}
	if err := loop.Err(); err != nil {
		fmt.Fprintf(stderr, "procmon: session failed: %v\n", err)
		code = 1
	}
	return code
}

// printStats renders the end-of-session summary for the enabled metrics.
func printStats(out io.Writer, settings monitor.Settings, stats session.Stats) {
	if settings.CPU {
		fmt.Fprintf(out, "cpu: avg %.1f%%, peak %.1f%%\n", stats.AvgCPUPercent, stats.PeakCPUPercent)
	}
	if settings.RAM {
		fmt.Fprintf(out, "ram: avg %.1f MB, peak %.1f MB\n", stats.AvgRAMUsedMB, stats.PeakRAMUsedMB)
	}
	if settings.GPUCore {
		fmt.Fprintf(out, "gpu: avg %.1f%%, peak %.1f%%\n", stats.AvgGPUCore, stats.PeakGPUCore)
	}
	if settings.GPUVideo {
		fmt.Fprintf(out, "video: avg %.1f%%, peak %.1f%%\n", stats.AvgGPUVideo, stats.PeakGPUVideo)
	}
	if settings.VRAM {
		fmt.Fprintf(out, "vram: avg %.1f MB, peak %.1f MB\n", stats.AvgVRAMUsedMB, stats.PeakVRAMUsedMB)
	}
}
