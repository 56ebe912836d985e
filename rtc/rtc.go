// Package rtc reads and sets the time on the clock's NXP PCF8523 RTC over
// I²C.  The chip stores every field as binary-coded decimal; this package is
// the codec and nothing more.  Callers that poll ReadTime keep their last
// good digits on a bus error and try again next iteration.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCF8523.pdf
package rtc

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/jrockway/beaglebone-alarm-clock/display"
)

// Address is the PCF8523's fixed I²C address.
const Address = 0x68

// timeReg is the first of the seven time registers (seconds through years).
const timeReg = 0x03

// Time is the calendar time as the chip stores it, all fields binary.
// Year counts from 2000.
type Time struct {
	Hours     uint8
	Minutes   uint8
	Seconds   uint8
	Day       uint8
	DayOfWeek uint8
	Month     uint8
	Year      uint8
}

// RTC talks to one PCF8523.
type RTC struct {
	dev i2c.Dev
}

func New(bus i2c.Bus) *RTC {
	return &RTC{dev: i2c.Dev{Bus: bus, Addr: Address}}
}

// ReadTime reads the seven time registers in one transaction and returns
// the decoded time along with the raw BCD digits, ready for the
// seven-segment renderers.
func (r *RTC) ReadTime() (Time, display.Digits, error) {
	buf := make([]byte, 7)
	if err := r.dev.Tx([]byte{timeReg}, buf); err != nil {
		return Time{}, display.Digits{}, fmt.Errorf("read time registers: %w", err)
	}

	// The top bit of the seconds register is the oscillator-stopped flag,
	// not time.
	buf[0] &= 0x7f

	digits := display.Digits{
		Seconds: [2]uint8{buf[0] >> 4, buf[0] & 0x0f},
		Minutes: [2]uint8{buf[1] >> 4, buf[1] & 0x0f},
		Hours:   [2]uint8{buf[2] >> 4, buf[2] & 0x0f},
	}

	var t Time
	for _, f := range []struct {
		name string
		dst  *uint8
		raw  byte
	}{
		{"seconds", &t.Seconds, buf[0]},
		{"minutes", &t.Minutes, buf[1]},
		{"hours", &t.Hours, buf[2]},
		{"day", &t.Day, buf[3]},
		{"day of week", &t.DayOfWeek, buf[4]},
		{"month", &t.Month, buf[5]},
		{"year", &t.Year, buf[6]},
	} {
		v, err := bcdDecode(f.raw)
		if err != nil {
			return Time{}, display.Digits{}, fmt.Errorf("decode %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return t, digits, nil
}

// SetTime writes all seven time registers in one transaction.
func (r *RTC) SetTime(t Time) error {
	w := []byte{
		timeReg,
		bcdEncode(t.Seconds),
		bcdEncode(t.Minutes),
		bcdEncode(t.Hours),
		bcdEncode(t.Day),
		bcdEncode(t.DayOfWeek),
		bcdEncode(t.Month),
		bcdEncode(t.Year),
	}
	if err := r.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("write time registers: %w", err)
	}
	return nil
}

// bcdDecode converts one BCD byte to binary.  A nibble above 9 is not BCD;
// it is reported rather than silently wrapped.
func bcdDecode(b byte) (uint8, error) {
	if b>>4 > 9 || b&0x0f > 9 {
		return 0, fmt.Errorf("byte %#02x is not valid bcd", b)
	}
	return (b>>4)*10 + b&0x0f, nil
}

// bcdEncode converts 0-99 to BCD.  Larger values do not fit in a byte of
// BCD and indicate a caller bug.
func bcdEncode(v uint8) byte {
	if v > 99 {
		panic(fmt.Sprintf("value %d does not fit in bcd", v))
	}
	return v/10<<4 | v%10
}
