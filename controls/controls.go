// Package controls turns the raw pin levels captured by the inputs package
// into discrete user actions: a rotary encoder detent and two button presses.
//
// Each tracker's Update must be called once per main-loop iteration, before
// any of the query methods.  The queries are single-shot: they consume the
// per-iteration change indication, so a single iteration reports at most one
// action per tracker.  Because a single edge event carries one consistent
// burst of levels, rotation and a press of the same tracker are mutually
// exclusive within an iteration.
package controls

import "github.com/jrockway/beaglebone-alarm-clock/inputs"

// RotaryEncoder tracks the quadrature encoder and its push button.
type RotaryEncoder struct {
	src     inputs.Source
	state   inputs.Snapshot
	changed bool
}

func NewRotaryEncoder(src inputs.Source) *RotaryEncoder {
	return &RotaryEncoder{src: src}
}

// Update polls the capture layer.  A change is only relevant if the global
// latch fired and the levels actually differ from the previous poll; this
// filters out events caused by pins this tracker does not care about.
func (e *RotaryEncoder) Update() {
	state := e.src.Snapshot()
	e.changed = e.src.ConsumeChanged() &&
		(e.state.RotaryA != state.RotaryA ||
			e.state.RotaryB != state.RotaryB ||
			e.state.RotaryButton != state.RotaryButton)
	e.state = state
}

// RotatedClockwise reports a clockwise detent.  At the instant one phase of
// the quadrature pair changes, the phases differ for one rotation direction
// and match for the other.
func (e *RotaryEncoder) RotatedClockwise() bool {
	ret := e.changed && (e.state.RotaryA != e.state.RotaryB)
	e.changed = false
	return ret
}

// Button reports a press of the encoder's push button.  The pin is tied to
// ground when pressed, so a low level means pressed.
func (e *RotaryEncoder) Button() bool {
	ret := e.changed && !e.state.RotaryButton
	e.changed = false
	return ret
}

// SnoozeButton tracks the snooze button.
type SnoozeButton struct {
	src     inputs.Source
	state   bool // raw level
	changed bool
}

func NewSnoozeButton(src inputs.Source) *SnoozeButton {
	return &SnoozeButton{src: src}
}

// Update polls the capture layer, ignoring rotary encoder changes.
func (b *SnoozeButton) Update() {
	state := b.src.Snapshot().SnoozeButton
	b.changed = b.src.ConsumeChanged() && (b.state != state)
	b.state = state
}

// Pressed reports a press.  Active-low, like the encoder's button.
func (b *SnoozeButton) Pressed() bool {
	ret := b.changed && !b.state
	b.changed = false
	return ret
}
