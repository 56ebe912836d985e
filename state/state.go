// Package state holds the clock's operating state: current and alarm time,
// the digits being displayed, and the mode/menu enums the setting UI will
// hang off of.
//
// The transition logic between modes was never finished in the firmware this
// clock descends from, and none is invented here: the enums are a data model
// for the main loop to store, nothing reads them to change behavior yet.
package state

import (
	"github.com/jrockway/beaglebone-alarm-clock/display"
	"github.com/jrockway/beaglebone-alarm-clock/rtc"
)

// TimeSetField is the field being adjusted while setting a time.  Seconds
// are always zeroed on a set, so they are not adjustable.
type TimeSetField int

const (
	SetHours TimeSetField = iota
	SetMinutes
)

// DateSetField is the field being adjusted while setting the date.  The day
// of week is entered by the user rather than computed; the onus is on them
// and it is always right.
type DateSetField int

const (
	SetDay DateSetField = iota
	SetDayOfWeek
	SetMonth
	SetYear
)

// Mode is what the clock is doing right now.
type Mode int

const (
	ModeIdle Mode = iota
	ModeTimeSet
	ModeAlarmSet
	ModeDateSet
	ModeAlarm // the alarm is sounding
)

// Menu is the entry highlighted on the settings menu.
type Menu int

const (
	MenuIdle Menu = iota
	MenuTimeSet
	MenuAlarmSet
	MenuDateSet
	MenuLauncher
)

// State is everything the main loop carries between iterations.
type State struct {
	Time         rtc.Time
	AlarmTime    rtc.Time
	Digits       display.Digits
	Mode         Mode
	Menu         Menu
	TimeSetField TimeSetField
	DateSetField DateSetField
	AlarmEnabled bool
}

// PM reports whether the current time is in the afternoon, for the PM
// indicator LED.
func (s *State) PM() bool {
	return s.Time.Hours >= 12
}
