//go:build linux

package inputs

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// Pins names the character-device line offsets of the four watched pins.
// The caller must pass offsets that match the board's actual wiring; nothing
// here can check that.
type Pins struct {
	Chip         string // e.g. "gpiochip0"
	RotaryA      int
	RotaryB      int
	RotaryButton int
	SnoozeButton int
}

// HardwareSource is a Capture fed by kernel edge events on the four pins.
type HardwareSource struct {
	Capture

	linesMu sync.Mutex
	lines   *gpiocdev.Lines // nil before Open finishes and after Close
}

// Open requests the four pins as one line group with pull-ups (the buttons
// tie to ground) and both-edge event reporting.  The event handler performs
// a single group read per event so the recorded levels are consistent.
func Open(p Pins) (*HardwareSource, error) {
	s := &HardwareSource{}
	offsets := []int{p.RotaryA, p.RotaryB, p.RotaryButton, p.SnoozeButton}

	// The goroutine dispatching edge events starts inside RequestLines,
	// so an edge can arrive before the line handle is stored.  Holding
	// the lock here parks such an event until the handle is ready.
	s.linesMu.Lock()
	lines, err := gpiocdev.RequestLines(p.Chip, offsets,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { s.sample() }),
	)
	if err != nil {
		s.linesMu.Unlock()
		return nil, fmt.Errorf("request input lines %v on %s: %w", offsets, p.Chip, err)
	}
	s.lines = lines
	s.linesMu.Unlock()

	s.sample() // capture the levels as wired at startup
	return s, nil
}

func (s *HardwareSource) sample() {
	s.linesMu.Lock()
	defer s.linesMu.Unlock()
	if s.lines == nil {
		return
	}
	vals := make([]int, 4)
	if err := s.lines.Values(vals); err != nil {
		// A failed group read leaves the previous snapshot in place;
		// the next edge will retry.
		return
	}
	s.Record(Snapshot{
		RotaryA:      vals[0] != 0,
		RotaryB:      vals[1] != 0,
		RotaryButton: vals[2] != 0,
		SnoozeButton: vals[3] != 0,
	})
}

// Close releases the line group.
func (s *HardwareSource) Close() error {
	s.linesMu.Lock()
	defer s.linesMu.Unlock()
	if s.lines == nil {
		return nil
	}
	lines := s.lines
	s.lines = nil
	if err := lines.Close(); err != nil {
		return fmt.Errorf("close input lines: %w", err)
	}
	return nil
}
