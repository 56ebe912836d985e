package display

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Seconds drives the two-digit seconds face: two 10016AD digits, one per
// 8-bit shift register.  Nothing is multiplexed, so a frame stays lit until
// the next one; call Display once per second.
type Seconds struct {
	bus     Bus
	preview *Preview // may be nil
}

func NewSeconds(bus Bus, preview *Preview) *Seconds {
	return &Seconds{bus: bus, preview: preview}
}

// Display pushes both seconds digits.  Each register's outputs were wired
// to whatever made the board routing easy, so the segment order below is
// just how the copper goes.
func (s *Seconds) Display(d Digits) error {
	tens := glyphFor(d.Seconds[0])
	ones := glyphFor(d.Seconds[1])

	frame := [Width]gpio.Level{
		// First register: tens digit.
		tens[6], // G
		tens[5], // F
		tens[0], // A
		tens[1], // B
		tens[4], // E
		tens[3], // D
		tens[2], // C
		gpio.Low,
		// Second register: ones digit.
		ones[6], // G
		ones[5], // F
		ones[0], // A
		ones[1], // B
		gpio.Low,
		ones[3], // D
		ones[2], // C
		ones[4], // E
	}

	if err := s.bus.SetBitArray(frame[:]); err != nil {
		return fmt.Errorf("shift seconds frame: %w", err)
	}
	if s.preview != nil {
		s.preview.setSeconds(d)
	}
	return nil
}
