// Package inputs captures the raw levels of the clock's four input pins: the
// rotary encoder's A and B phases, the encoder's push button, and the snooze
// button.  On real hardware every edge on any watched pin triggers an event
// handler that samples all four lines in one group read; the main loop then
// polls the captured state at its leisure.
//
// Buttons are wired active-low (pressed ties the pin to ground), but the
// levels stored here are raw; interpretation is the controls package's job.
package inputs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var edgesCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "input_edges_total",
	Help: "count of pin edge events recorded by the input capture layer",
})

// Snapshot is the raw level of each watched pin, true meaning electrically
// high.  All four levels come from the same group read, so they are mutually
// consistent as of one event.
type Snapshot struct {
	RotaryA      bool
	RotaryB      bool
	RotaryButton bool
	SnoozeButton bool
}

// Source is what the debounce layer polls.  Close releases any underlying
// pin reservations.
type Source interface {
	// Snapshot returns the levels recorded by the most recent event.
	Snapshot() Snapshot
	// ConsumeChanged reports whether any event was recorded since the last
	// call, and clears the indication.  Multiple events between polls
	// collapse into one report; two calls in a row return true then false.
	ConsumeChanged() bool
	Close() error
}

// latchState makes the consume-once contract explicit: the latch is pending
// from the moment an event is recorded until some reader consumes it.
type latchState uint8

const (
	latchIdle latchState = iota
	latchPending
)

// Capture holds the shared state written by the edge-event handler and read
// by the main loop.  The zero value is ready to use (all levels low, nothing
// pending); real hardware delivers an initial event soon enough.
type Capture struct {
	mu      sync.Mutex
	levels  Snapshot
	changed latchState
}

// Record stores a new set of levels and marks the latch pending.  It is
// called from the edge-event goroutine; tests call it directly.
func (c *Capture) Record(s Snapshot) {
	c.mu.Lock()
	c.levels = s
	c.changed = latchPending
	c.mu.Unlock()
	edgesCounter.Inc()
}

// Snapshot returns the most recently recorded levels.
func (c *Capture) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levels
}

// ConsumeChanged reports and clears the pending latch.
func (c *Capture) ConsumeChanged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.changed == latchPending {
		c.changed = latchIdle
		return true
	}
	return false
}

// Close is a no-op for a bare Capture; hardware bindings wrap it.
func (c *Capture) Close() error { return nil }
