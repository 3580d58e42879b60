package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
	"github.com/chatvault/chatvault-go/internal/telemetry/metric"
)

// DefaultDebounceDelay is the quiet period before a debounced trigger
// fires.
const DefaultDebounceDelay = 2000 * time.Millisecond

// Debouncer collapses bursts of debounced triggers into one delayed
// execution.
//
// It holds a single pending slot for the whole process: every Trigger
// cancels the pending timer and re-arms it, so N triggers inside the
// window execute the workflow exactly once, against whatever
// conversation is current at fire time. Workflow failures are logged,
// never propagated to the trigger path.
type Debouncer struct {
	run     func(context.Context) error
	log     logger.Logger
	metrics *metric.Registry

	delay atomic.Int64 // nanoseconds

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer over the given workflow. A
// non-positive delay falls back to DefaultDebounceDelay.
func NewDebouncer(delay time.Duration, run func(context.Context) error, log logger.Logger, metrics *metric.Registry) *Debouncer {
	if log == nil {
		log = logger.Default()
	}
	d := &Debouncer{run: run, log: log, metrics: metrics}
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	d.delay.Store(int64(delay))
	return d
}

// SetDelay adjusts the quiet period at runtime. It applies from the
// next trigger; a pending timer keeps its original deadline.
func (d *Debouncer) SetDelay(delay time.Duration) {
	if delay > 0 {
		d.delay.Store(int64(delay))
	}
}

// Delay returns the current quiet period.
func (d *Debouncer) Delay() time.Duration {
	return time.Duration(d.delay.Load())
}

// Trigger arms the pending slot, cancelling any previous pending
// execution.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		if d.timer.Stop() && d.metrics != nil {
			d.metrics.DebounceCollapsed.Inc()
		}
	}
	if d.metrics != nil {
		d.metrics.DebounceScheduled.Inc()
	}
	d.timer = time.AfterFunc(d.Delay(), d.fire)
}

// Pending reports whether an execution is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending execution. Safe to call repeatedly.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// fire runs on the timer goroutine when the quiet period elapses.
func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("debounced backup panicked", "panic", r)
		}
	}()

	if err := d.run(context.Background()); err != nil {
		d.log.Error("debounced backup failed", "error", err)
	}
}
