// Package display renders BCD time digits onto the clock's seven-segment
// displays through shift-register chains: a 4-digit multiplexed
// hours:minutes face and a static 2-digit seconds face.  The two faces are
// wired to distinct chains and each renderer owns its own driver.
package display

import "periph.io/x/conn/v3/gpio"

// Blank is the pseudo-digit that turns every segment off.
const Blank = 0x10

// glyphs holds the A-G segment levels for digit values 0x0-0xF plus Blank.
// Values above 9 reuse the decimal segments as a rough hexadecimal set for
// diagnostic output (B renders as 8 and D as 0; the displays have no
// lowercase).
var glyphs = [Blank + 1][7]gpio.Level{
	0x0:   {gpio.High, gpio.High, gpio.High, gpio.High, gpio.High, gpio.High, gpio.Low},
	0x1:   {gpio.Low, gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.Low, gpio.Low},
	0x2:   {gpio.High, gpio.High, gpio.Low, gpio.High, gpio.High, gpio.Low, gpio.High},
	0x3:   {gpio.High, gpio.High, gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.High},
	0x4:   {gpio.Low, gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.High, gpio.High},
	0x5:   {gpio.High, gpio.Low, gpio.High, gpio.High, gpio.Low, gpio.High, gpio.High},
	0x6:   {gpio.High, gpio.Low, gpio.High, gpio.High, gpio.High, gpio.High, gpio.High},
	0x7:   {gpio.High, gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.Low, gpio.Low},
	0x8:   {gpio.High, gpio.High, gpio.High, gpio.High, gpio.High, gpio.High, gpio.High},
	0x9:   {gpio.High, gpio.High, gpio.High, gpio.High, gpio.Low, gpio.High, gpio.High},
	0xA:   {gpio.High, gpio.High, gpio.High, gpio.Low, gpio.High, gpio.High, gpio.High},
	0xB:   {gpio.High, gpio.High, gpio.High, gpio.High, gpio.High, gpio.High, gpio.High},
	0xC:   {gpio.High, gpio.Low, gpio.Low, gpio.High, gpio.High, gpio.High, gpio.Low},
	0xD:   {gpio.High, gpio.High, gpio.High, gpio.High, gpio.High, gpio.High, gpio.Low},
	0xE:   {gpio.High, gpio.Low, gpio.Low, gpio.High, gpio.High, gpio.High, gpio.High},
	0xF:   {gpio.High, gpio.Low, gpio.Low, gpio.Low, gpio.High, gpio.High, gpio.High},
	Blank: {gpio.Low, gpio.Low, gpio.Low, gpio.Low, gpio.Low, gpio.Low, gpio.Low},
}

// glyphFor returns the segment levels for a digit value.  Anything outside
// the table renders blank rather than lighting garbage.
func glyphFor(v uint8) [7]gpio.Level {
	if int(v) >= len(glyphs) {
		return glyphs[Blank]
	}
	return glyphs[v]
}
