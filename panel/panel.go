// Package panel draws a small status readout on the clock's SSD1306 OLED:
// a banner line and the time in text.  It replaces the character LCD the
// first build of this clock bolted on through a spare shift register.
package panel

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"

	"github.com/jrockway/beaglebone-alarm-clock/display"
	"github.com/jrockway/beaglebone-alarm-clock/state"
)

const banner = "alarmed clock"

// Panel is one SSD1306 on the I²C bus.
type Panel struct {
	dev *ssd1306.Dev
}

func New(bus i2c.Bus) (*Panel, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("init ssd1306: %w", err)
	}
	return &Panel{dev: dev}, nil
}

// render draws the banner, the time, and the indicator row into a fresh
// canvas of the panel's size.
func render(bounds image.Rectangle, s *state.State) *image.RGBA {
	img := image.NewRGBA(bounds)
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawString(banner)

	drawer.Dot = fixed.P(0, 32)
	drawer.DrawString(formatDigits(s.Digits))

	var flags string
	if s.AlarmEnabled {
		flags = "ALM"
	}
	if s.PM() {
		flags += " PM"
	}
	drawer.Dot = fixed.P(0, 51)
	drawer.DrawString(flags)

	return img
}

func formatDigits(d display.Digits) string {
	return fmt.Sprintf("%d%d:%d%d:%d%d",
		d.Hours[0], d.Hours[1], d.Minutes[0], d.Minutes[1], d.Seconds[0], d.Seconds[1])
}

// Show redraws the panel.  Call it when the digits change; once a second is
// plenty.
func (p *Panel) Show(s *state.State) error {
	img := render(p.dev.Bounds(), s)
	if err := p.dev.Draw(p.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("draw to ssd1306: %w", err)
	}
	return nil
}

// Halt blanks the panel.
func (p *Panel) Halt() error {
	return p.dev.Halt()
}
