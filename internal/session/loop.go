// Package session runs the fixed-interval sampling loop for one monitoring
// session: collect, persist, notify, until something ends it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"procmon/internal/logging"
	"procmon/internal/monitor"
	"procmon/internal/sensor"
)

var (
	// ErrAlreadyStarted is returned by Start after the first call.
	ErrAlreadyStarted = errors.New("session: already started")
	// ErrNotRunning is returned by Pause and Resume outside an active session.
	ErrNotRunning = errors.New("session: not running")
)

// State is the loop's lifecycle position. Stopped is terminal.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopped
)

// String returns the state name used in diagnostics.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason records why a session ended.
type StopReason int

const (
	ReasonNone StopReason = iota
	// ReasonStopRequested means Stop was called.
	ReasonStopRequested
	// ReasonDurationElapsed means the configured duration ran out.
	ReasonDurationElapsed
	// ReasonProcessExited means the target terminated.
	ReasonProcessExited
	// ReasonContextCancelled means the surrounding context was cancelled.
	ReasonContextCancelled
	// ReasonError means a tick failed hard, typically log I/O.
	ReasonError
)

// String returns the reason name used in diagnostics.
func (r StopReason) String() string {
	switch r {
	case ReasonStopRequested:
		return "stop_requested"
	case ReasonDurationElapsed:
		return "duration_elapsed"
	case ReasonProcessExited:
		return "process_exited"
	case ReasonContextCancelled:
		return "context_cancelled"
	case ReasonError:
		return "error"
	default:
		return "none"
	}
}

// Collector yields one sample per tick.
type Collector interface {
	Collect() (monitor.Sample, error)
}

// Appender persists one sample per tick.
type Appender interface {
	Append(monitor.Sample) error
}

// Observer receives session events synchronously on the sampling goroutine.
// Implementations must return quickly; a slow observer stretches the tick.
type Observer interface {
	OnSample(monitor.Sample)
	OnError(err error)
	OnStop(reason StopReason)
}

// Config assembles a loop. Collector and Target are required; Appender,
// Series and Observer are optional. A nil Clock selects the wall clock.
type Config struct {
	Settings  monitor.Settings
	Target    sensor.Target
	Collector Collector
	Appender  Appender
	Series    *Series
	Observer  Observer
	Clock     clock.Clock
	Logger    *logging.Logger
}

// Loop drives one session on a single goroutine: an immediate first sample
// at start, then one per interval. Ticks never overlap; if collection
// outruns the interval, pending ticks coalesce and the cadence degrades
// instead of stacking up. Stop requests interrupt the wait between ticks,
// so a session halts without waiting out the current interval.
type Loop struct {
	settings  monitor.Settings
	target    sensor.Target
	collector Collector
	appender  Appender
	series    *Series
	observer  Observer
	clk       clock.Clock
	logger    *logging.Logger

	mu     sync.Mutex
	state  State
	reason StopReason
	err    error

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates an idle loop for the given session.
func New(cfg Config) *Loop {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		settings:  cfg.Settings,
		target:    cfg.Target,
		collector: cfg.Collector,
		appender:  cfg.Appender,
		series:    cfg.Series,
		observer:  cfg.Observer,
		clk:       clk,
		logger:    cfg.Logger,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sampling goroutine. It can be called once; the loop
// runs until the duration elapses, the target exits, Stop is called, the
// context is cancelled or a tick fails.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateIdle {
		return ErrAlreadyStarted
	}
	l.state = StateRunning

	if l.logger != nil {
		l.logger.Info("session.started", "Sampling session started", map[string]interface{}{
			"process":  l.target.Name(),
			"pid":      l.target.PID(),
			"interval": l.settings.Interval.String(),
			"duration": l.settings.Duration.String(),
		})
	}

	go l.run(ctx)
	return nil
}

// Stop requests a halt. Idempotent, returns immediately; Wait observes the
// actual exit.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
}

// Pause suspends sampling while keeping the interval timer alive. Samples
// due while paused are skipped, not queued.
func (l *Loop) Pause() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateRunning {
		return fmt.Errorf("%w: state %s", ErrNotRunning, l.state)
	}
	l.state = StatePaused
	if l.logger != nil {
		l.logger.Info("session.paused", "Sampling paused", nil)
	}
	return nil
}

// Resume continues sampling at the next tick.
func (l *Loop) Resume() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StatePaused {
		return fmt.Errorf("%w: state %s", ErrNotRunning, l.state)
	}
	l.state = StateRunning
	if l.logger != nil {
		l.logger.Info("session.resumed", "Sampling resumed", nil)
	}
	return nil
}

// Wait blocks until the loop has fully exited.
func (l *Loop) Wait() {
	<-l.done
}

// State returns the current lifecycle position.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Reason reports why the session stopped; ReasonNone while it runs.
func (l *Loop) Reason() StopReason {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason
}

// Err returns the error that ended the session, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	ticker := l.clk.Ticker(l.settings.Interval)
	defer ticker.Stop()
	start := l.clk.Now()

	// First sample immediately; the interval paces the ones after.
	if !l.target.IsRunning() {
		l.finish(ReasonProcessExited, nil)
		return
	}
	if err := l.tick(); err != nil {
		l.finish(ReasonError, err)
		return
	}

	for {
		select {
		case <-l.stopCh:
			l.finish(ReasonStopRequested, nil)
			return
		case <-ctx.Done():
			l.finish(ReasonContextCancelled, ctx.Err())
			return
		case now := <-ticker.C:
			if l.paused() {
				continue
			}
			if d := l.settings.Duration; d > 0 && now.Sub(start) >= d {
				l.finish(ReasonDurationElapsed, nil)
				return
			}
			if !l.target.IsRunning() {
				l.finish(ReasonProcessExited, nil)
				return
			}
			if err := l.tick(); err != nil {
				l.finish(ReasonError, err)
				return
			}
		}
	}
}

// tick collects one sample and fans it out to the series, the log and the
// observer.
func (l *Loop) tick() error {
	sample, err := l.collector.Collect()
	if err != nil {
		return fmt.Errorf("failed to collect sample: %w", err)
	}

	if l.series != nil {
		l.series.Add(sample)
	}
	if l.appender != nil {
		if err := l.appender.Append(sample); err != nil {
			return fmt.Errorf("failed to log sample: %w", err)
		}
	}
	if l.observer != nil {
		l.observer.OnSample(sample)
	}
	return nil
}

func (l *Loop) paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == StatePaused
}

func (l *Loop) finish(reason StopReason, err error) {
	l.mu.Lock()
	l.state = StateStopped
	l.reason = reason
	l.err = err
	l.mu.Unlock()

	if l.logger != nil {
		payload := map[string]interface{}{
			"reason": reason.String(),
		}
		if err != nil {
			payload["error"] = err.Error()
		}
		l.logger.Info("session.stopped", "Sampling session stopped", payload)
	}

	if err != nil && l.observer != nil {
		l.observer.OnError(err)
	}
	if l.observer != nil {
		l.observer.OnStop(reason)
	}
}
