// Package shiftreg bit-bangs one or more daisy-chained TPIC6595 power shift
// registers over three GPIO lines: serial-in, clock, and latch.  The driver
// is declared with a fixed number of output lines; shifting that many bits
// latches automatically, so a full-width write always reaches the outputs as
// one atomic update.
//
// A driver can also be decomposed into per-line Pin handles implementing
// periph's gpio.PinOut, so byte-oriented consumers (a character LCD, say) can
// treat shift-register outputs as ordinary pins.  Every write through such a
// handle re-serializes the whole array, trading throughput for outputs that
// are never torn.
package shiftreg

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"periph.io/x/conn/v3/gpio"
)

// Timing floors from page 4 of the TPIC6595 datasheet
// (https://www.ti.com/lit/ds/symlink/tpic6595.pdf).  The GPIO syscall round
// trip is orders of magnitude longer than any of these, so the sleeps only
// matter on hosts with memory-mapped pins.
const (
	tSetup      = 10 * time.Nanosecond // serial-in stable before clock rises
	tHold       = 10 * time.Nanosecond // serial-in held after clock rises
	tClockWidth = 20 * time.Nanosecond
	tLatchWidth = tClockWidth
)

var latchesCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "shiftreg_latches_total",
	Help: "count of latch pulses sent to shift register chains",
})

// ShiftRegister drives one chain of shift registers with n output lines.
// The mutex is the critical section of the serial protocol: no two writers
// ever interleave the shift-and-latch sequence, and the bit image always
// matches what the last completed sequence put on the wire.
type ShiftRegister struct {
	serialIn gpio.PinOut
	clock    gpio.PinOut
	latch    gpio.PinOut

	mu      sync.Mutex
	bits    []gpio.Level // index 0 = first bit out = last bit shifted
	shifted int          // bits shifted since the last latch
	latched bool         // the image is asserted on the outputs
}

// New returns a driver for a chain of n output lines.  All three bus pins
// are driven low to start from a known state.
func New(n int, serialIn, clock, latch gpio.PinOut) (*ShiftRegister, error) {
	if n <= 0 {
		return nil, fmt.Errorf("shift register needs at least one output line, got %d", n)
	}
	for _, p := range []gpio.PinOut{serialIn, clock, latch} {
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("lower %s: %w", p, err)
		}
	}
	return &ShiftRegister{
		serialIn: serialIn,
		clock:    clock,
		latch:    latch,
		bits:     make([]gpio.Level, n),
	}, nil
}

func (s *ShiftRegister) String() string {
	return fmt.Sprintf("tpic6595{%s, %s, %s}", s.serialIn, s.clock, s.latch)
}

// Len returns the number of output lines on the chain.
func (s *ShiftRegister) Len() int {
	return len(s.bits)
}

// pulse clocks one bit into the chain.  Caller must hold mu.
func (s *ShiftRegister) pulse(l gpio.Level) error {
	if err := s.serialIn.Out(l); err != nil {
		return fmt.Errorf("set serial-in %v: %w", l, err)
	}
	time.Sleep(tSetup)
	if err := s.clock.Out(gpio.High); err != nil {
		return fmt.Errorf("raise clock: %w", err)
	}
	time.Sleep(tHold)
	if err := s.serialIn.Out(gpio.Low); err != nil {
		return fmt.Errorf("lower serial-in: %w", err)
	}
	time.Sleep(tClockWidth - tHold)
	if err := s.clock.Out(gpio.Low); err != nil {
		return fmt.Errorf("lower clock: %w", err)
	}
	return nil
}

// latchNow pulses the latch line, moving the shifted bits to the output
// drains, and rearms the shift counter.  Caller must hold mu.
func (s *ShiftRegister) latchNow() error {
	if err := s.latch.Out(gpio.High); err != nil {
		return fmt.Errorf("raise latch: %w", err)
	}
	time.Sleep(tLatchWidth)
	if err := s.latch.Out(gpio.Low); err != nil {
		return fmt.Errorf("lower latch: %w", err)
	}
	s.shifted = 0
	s.latched = true
	latchesCounter.Inc()
	return nil
}

// ShiftOut clocks a single bit into the chain and shifts the image along
// with it.  Every Len()th call since the last latch pulses the latch
// automatically, so callers streaming a full width never latch by hand.
func (s *ShiftRegister) ShiftOut(l gpio.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pulse(l); err != nil {
		return err
	}
	// The register contents move one stage along; the newest bit will be
	// the last one out, which is index 0.
	for i := len(s.bits) - 1; i > 0; i-- {
		s.bits[i] = s.bits[i-1]
	}
	s.bits[0] = l
	s.latched = false
	s.shifted++
	if s.shifted == len(s.bits) {
		return s.latchNow()
	}
	return nil
}

// Latch pulses the latch line by hand.  Full-width writers never need this;
// it exists for asserting a partially shifted chain.
func (s *ShiftRegister) Latch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latchNow()
}

// SetBitArray shifts out the whole array, last index first, so that
// levels[0] lands on the first output line, and latches exactly once.  The
// array becomes the new authoritative image.
func (s *ShiftRegister) SetBitArray(levels []gpio.Level) error {
	if len(levels) != len(s.bits) {
		return fmt.Errorf("bit array is %d wide, chain has %d lines", len(levels), len(s.bits))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifted = 0
	for i := len(levels) - 1; i >= 0; i-- {
		if err := s.pulse(levels[i]); err != nil {
			return err
		}
		s.shifted++
	}
	copy(s.bits, levels)
	return s.latchNow()
}

// IsLatched reports whether the image matches what is asserted on the
// physical outputs.
func (s *ShiftRegister) IsLatched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latched
}

// BitArray returns a copy of the current image.
func (s *ShiftRegister) BitArray() []gpio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gpio.Level, len(s.bits))
	copy(out, s.bits)
	return out
}
