//go:build !linux

package inputs

import "errors"

// Pins names the character-device line offsets of the four watched pins.
type Pins struct {
	Chip         string
	RotaryA      int
	RotaryB      int
	RotaryButton int
	SnoozeButton int
}

// HardwareSource is not available off-Linux; the GPIO character device is a
// Linux kernel interface.
type HardwareSource struct {
	Capture
}

func Open(Pins) (*HardwareSource, error) {
	return nil, errors.New("inputs: gpio character device requires linux")
}
