package shiftreg

import (
	"errors"
	"reflect"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// busEvent is one level change on one wire of the 3-wire bus.
type busEvent struct {
	pin   string
	level gpio.Level
}

// busRecorder collects the level changes of all three wires in order, which
// is everything the chip on the other end would see.
type busRecorder struct {
	events []busEvent
}

// sampledBits replays the recording the way the chip would: on every rising
// clock edge, sample the serial-in line.
func (r *busRecorder) sampledBits() []gpio.Level {
	var bits []gpio.Level
	serial := gpio.Low
	clock := gpio.Low
	for _, e := range r.events {
		switch e.pin {
		case "serial":
			serial = e.level
		case "clock":
			if e.level && !clock {
				bits = append(bits, serial)
			}
			clock = e.level
		}
	}
	return bits
}

// latchPulses counts rising edges on the latch line.
func (r *busRecorder) latchPulses() int {
	n := 0
	level := gpio.Low
	for _, e := range r.events {
		if e.pin == "latch" {
			if e.level && !level {
				n++
			}
			level = e.level
		}
	}
	return n
}

func (r *busRecorder) reset() {
	r.events = nil
}

// recordedPin is a gpio.PinOut writing into a shared busRecorder.
type recordedPin struct {
	name string
	rec  *busRecorder
	fail error
}

func (p *recordedPin) Out(l gpio.Level) error {
	if p.fail != nil {
		return p.fail
	}
	p.rec.events = append(p.rec.events, busEvent{pin: p.name, level: l})
	return nil
}

func (p *recordedPin) PWM(gpio.Duty, physic.Frequency) error { return errors.New("not supported") }
func (p *recordedPin) String() string                        { return p.name }
func (p *recordedPin) Name() string                          { return p.name }
func (p *recordedPin) Number() int                           { return 0 }
func (p *recordedPin) Function() string                      { return "Out" }
func (p *recordedPin) Halt() error                           { return p.Out(gpio.Low) }

func newRecorded(t *testing.T, n int) (*ShiftRegister, *busRecorder) {
	t.Helper()
	rec := &busRecorder{}
	s, err := New(n,
		&recordedPin{name: "serial", rec: rec},
		&recordedPin{name: "clock", rec: rec},
		&recordedPin{name: "latch", rec: rec},
	)
	if err != nil {
		t.Fatalf("new shift register: %v", err)
	}
	rec.reset() // drop the initial lowering of the bus
	return s, rec
}

func TestSetBitArray(t *testing.T) {
	s, rec := newRecorded(t, 8)

	in := []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.High, gpio.Low}
	if err := s.SetBitArray(in); err != nil {
		t.Fatalf("set bit array: %v", err)
	}

	// The chip sees the array last index first, so the first requested
	// value ends up on the first output.
	want := make([]gpio.Level, 8)
	for i := range want {
		want[i] = in[7-i]
	}
	if got := rec.sampledBits(); !reflect.DeepEqual(got, want) {
		t.Errorf("bits on the wire:\n  got: %v\n want: %v", got, want)
	}
	if got, want := rec.latchPulses(), 1; got != want {
		t.Errorf("latch pulses:\n  got: %v\n want: %v", got, want)
	}
	if got := s.BitArray(); !reflect.DeepEqual(got, in) {
		t.Errorf("image after write:\n  got: %v\n want: %v", got, in)
	}
	if !s.IsLatched() {
		t.Error("image should be latched after a full-width write")
	}
}

func TestSetBitArrayWrongWidth(t *testing.T) {
	s, _ := newRecorded(t, 8)
	if err := s.SetBitArray(make([]gpio.Level, 7)); err == nil {
		t.Error("expected error for a 7-wide array on an 8-line chain")
	}
}

func TestShiftOutAutoLatch(t *testing.T) {
	s, rec := newRecorded(t, 4)

	for i, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low} {
		if err := s.ShiftOut(l); err != nil {
			t.Fatalf("shift out bit %d: %v", i, err)
		}
		if latched := s.IsLatched(); latched != (i == 3) {
			t.Errorf("after bit %d: latched = %v", i, latched)
		}
	}

	if got, want := rec.latchPulses(), 1; got != want {
		t.Errorf("latch pulses after 4 bits:\n  got: %v\n want: %v", got, want)
	}

	// The first bit shifted ends up farthest along the chain.
	want := []gpio.Level{gpio.Low, gpio.High, gpio.Low, gpio.High}
	if got := s.BitArray(); !reflect.DeepEqual(got, want) {
		t.Errorf("image after 4 single-bit shifts:\n  got: %v\n want: %v", got, want)
	}

	// The next full width latches again, exactly once.
	rec.reset()
	for i := 0; i < 4; i++ {
		if err := s.ShiftOut(gpio.Low); err != nil {
			t.Fatalf("shift out: %v", err)
		}
	}
	if got, want := rec.latchPulses(), 1; got != want {
		t.Errorf("latch pulses after second width:\n  got: %v\n want: %v", got, want)
	}
}

func TestBitTiming(t *testing.T) {
	s, rec := newRecorded(t, 1)

	if err := s.ShiftOut(gpio.High); err != nil {
		t.Fatalf("shift out: %v", err)
	}
	// One high bit: serial up, clock up, serial back down, clock down,
	// then the automatic latch pulse for the 1-wide chain.
	want := []busEvent{
		{"serial", gpio.High},
		{"clock", gpio.High},
		{"serial", gpio.Low},
		{"clock", gpio.Low},
		{"latch", gpio.High},
		{"latch", gpio.Low},
	}
	if got := rec.events; !reflect.DeepEqual(got, want) {
		t.Errorf("bus sequence:\n  got: %v\n want: %v", got, want)
	}
}

func TestPinWrite(t *testing.T) {
	s, rec := newRecorded(t, 8)
	pins := s.Pins()
	if got, want := len(pins), 8; got != want {
		t.Fatalf("pin count:\n  got: %v\n want: %v", got, want)
	}

	if err := pins[3].Out(gpio.High); err != nil {
		t.Fatalf("write pin 3: %v", err)
	}

	// A single-bit write re-serializes the whole image.
	wantWire := make([]gpio.Level, 8)
	wantWire[8-1-3] = gpio.High // last index first on the wire
	if got := rec.sampledBits(); !reflect.DeepEqual(got, wantWire) {
		t.Errorf("bits on the wire:\n  got: %v\n want: %v", got, wantWire)
	}
	if got, want := rec.latchPulses(), 1; got != want {
		t.Errorf("latch pulses:\n  got: %v\n want: %v", got, want)
	}

	wantImage := make([]gpio.Level, 8)
	wantImage[3] = gpio.High
	if got := s.BitArray(); !reflect.DeepEqual(got, wantImage) {
		t.Errorf("image after pin write:\n  got: %v\n want: %v", got, wantImage)
	}
	if !s.IsLatched() {
		t.Error("image should be latched after a pin write")
	}
}

func TestPinWritesCompose(t *testing.T) {
	s, rec := newRecorded(t, 8)
	pins := s.Pins()

	if err := pins[0].Out(gpio.High); err != nil {
		t.Fatalf("write pin 0: %v", err)
	}
	if err := pins[7].Out(gpio.High); err != nil {
		t.Fatalf("write pin 7: %v", err)
	}

	want := make([]gpio.Level, 8)
	want[0] = gpio.High
	want[7] = gpio.High
	if got := s.BitArray(); !reflect.DeepEqual(got, want) {
		t.Errorf("image after two pin writes:\n  got: %v\n want: %v", got, want)
	}
	if got, want := rec.latchPulses(), 2; got != want {
		t.Errorf("latch pulses:\n  got: %v\n want: %v", got, want)
	}
}

func TestPinWriteResetsShiftCounter(t *testing.T) {
	s, rec := newRecorded(t, 4)

	// Two bits into a partial shift, then a pin write interrupts.
	s.ShiftOut(gpio.High)
	s.ShiftOut(gpio.High)
	rec.reset()

	if err := s.Pins()[1].Out(gpio.High); err != nil {
		t.Fatalf("write pin 1: %v", err)
	}
	// The pin write restarts from a clean counter: exactly 4 bits and one
	// latch, regardless of the interrupted shift.
	if got, want := len(rec.sampledBits()), 4; got != want {
		t.Errorf("bits on the wire:\n  got: %v\n want: %v", got, want)
	}
	if got, want := rec.latchPulses(), 1; got != want {
		t.Errorf("latch pulses:\n  got: %v\n want: %v", got, want)
	}
}

func TestNewRejectsZeroWidth(t *testing.T) {
	rec := &busRecorder{}
	p := func(n string) *recordedPin { return &recordedPin{name: n, rec: rec} }
	if _, err := New(0, p("serial"), p("clock"), p("latch")); err == nil {
		t.Error("expected error for a zero-line chain")
	}
}

func TestPinWriteError(t *testing.T) {
	rec := &busRecorder{}
	serial := &recordedPin{name: "serial", rec: rec}
	s, err := New(4, serial, &recordedPin{name: "clock", rec: rec}, &recordedPin{name: "latch", rec: rec})
	if err != nil {
		t.Fatalf("new shift register: %v", err)
	}
	serial.fail = errors.New("wire fell out")
	if err := s.Pins()[0].Out(gpio.High); err == nil {
		t.Error("expected pin write to propagate the bus error")
	}
}
