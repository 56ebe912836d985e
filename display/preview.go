package display

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"net/http"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Preview retains what the displays are showing and serves it as a PNG, for
// debugging the rest of the program without the clock attached.  The
// multiplexed face only ever lights one digit at an instant; the preview
// shows the retained image of all of them, which is what a human sees.
type Preview struct {
	mu sync.Mutex
	d  Digits
}

func (p *Preview) setHoursMinutes(d Digits) {
	p.mu.Lock()
	p.d.Hours = d.Hours
	p.d.Minutes = d.Minutes
	p.mu.Unlock()
}

func (p *Preview) setSeconds(d Digits) {
	p.mu.Lock()
	p.d.Seconds = d.Seconds
	p.mu.Unlock()
}

// Geometry of one rendered digit, in pixels.
const (
	segThick   = 6
	digitW     = 40
	digitH     = 70
	digitPitch = 50
	colonW     = 20
	margin     = 10
)

var (
	litColor   = color.RGBA{R: 0xff, G: 0xb0, A: 0xff} // the displays are yellow
	unlitColor = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
)

// drawDigit draws the seven segments of one digit with its top-left corner
// at (x, y).
func drawDigit(img *image.RGBA, x, y int, segments [7]gpio.Level) {
	t := segThick
	vh := (digitH - 3*t) / 2
	rects := [7]image.Rectangle{
		image.Rect(x+t, y, x+digitW-t, y+t),                    // A
		image.Rect(x+digitW-t, y+t, x+digitW, y+t+vh),          // B
		image.Rect(x+digitW-t, y+2*t+vh, x+digitW, y+2*t+2*vh), // C
		image.Rect(x+t, y+2*t+2*vh, x+digitW-t, y+3*t+2*vh),    // D
		image.Rect(x, y+2*t+vh, x+t, y+2*t+2*vh),               // E
		image.Rect(x, y+t, x+t, y+t+vh),                        // F
		image.Rect(x+t, y+t+vh, x+digitW-t, y+2*t+vh),          // G
	}
	for i, r := range rects {
		c := unlitColor
		if segments[i] {
			c = litColor
		}
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
}

func drawColon(img *image.RGBA, x, y int) {
	dot := segThick
	draw.Draw(img, image.Rect(x+colonW/2-dot/2, y+digitH/3, x+colonW/2+dot/2, y+digitH/3+dot), image.NewUniform(litColor), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(x+colonW/2-dot/2, y+2*digitH/3, x+colonW/2+dot/2, y+2*digitH/3+dot), image.NewUniform(litColor), image.Point{}, draw.Src)
}

// render draws the whole face: HH:MM:SS.
func (p *Preview) render() *image.RGBA {
	p.mu.Lock()
	d := p.d
	p.mu.Unlock()

	width := margin*2 + 6*digitPitch + 2*colonW
	img := image.NewRGBA(image.Rect(0, 0, width, digitH+margin*2))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	digits := [6]uint8{d.Hours[0], d.Hours[1], d.Minutes[0], d.Minutes[1], d.Seconds[0], d.Seconds[1]}
	x := margin
	for i, v := range digits {
		drawDigit(img, x, margin, glyphFor(v))
		x += digitPitch
		if i == 1 || i == 3 {
			drawColon(img, x-(digitPitch-digitW)/2, margin)
			x += colonW
		}
	}
	return img
}

// ServeHTTP serves the current face as a PNG.
func (p *Preview) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("content-type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, p.render()); err != nil {
		log.Printf("encoding preview image: %v", err)
	}
}
