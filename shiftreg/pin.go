package shiftreg

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is one output line of a ShiftRegister, usable anywhere a gpio.PinOut
// is accepted.  A Pin holds only its index and a reference to the owning
// driver; the driver remains the sole owner of the bit image.
//
// Writing a Pin updates its line in the image and re-serializes the entire
// chain under the driver's lock, so the physical outputs always reflect a
// complete, untorn image.  That makes a single-bit write O(n) and
// always-latching; consumers that care about throughput should batch with
// SetBitArray instead.
type Pin struct {
	reg   *ShiftRegister
	index int
}

// Pins decomposes the driver into one handle per output line, index 0
// first.
func (s *ShiftRegister) Pins() []*Pin {
	pins := make([]*Pin, len(s.bits))
	for i := range pins {
		pins[i] = &Pin{reg: s, index: i}
	}
	return pins
}

// Out sets the line's level and re-shifts the whole chain.
func (p *Pin) Out(l gpio.Level) error {
	s := p.reg
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bits[p.index] = l
	s.latched = false
	s.shifted = 0
	for i := len(s.bits) - 1; i >= 0; i-- {
		if err := s.pulse(s.bits[i]); err != nil {
			return fmt.Errorf("reshift %s: %w", p, err)
		}
		s.shifted++
	}
	if err := s.latchNow(); err != nil {
		return fmt.Errorf("reshift %s: %w", p, err)
	}
	return nil
}

// PWM is not possible through a latched serial chain.
func (p *Pin) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("shiftreg: pwm not supported on a shift register line")
}

func (p *Pin) String() string {
	return fmt.Sprintf("%s.Q%d", p.reg, p.index)
}

func (p *Pin) Name() string {
	return p.String()
}

func (p *Pin) Number() int {
	return p.index
}

func (p *Pin) Function() string {
	return "Out"
}

// Halt lowers the line.
func (p *Pin) Halt() error {
	return p.Out(gpio.Low)
}

var _ gpio.PinOut = (*Pin)(nil)
