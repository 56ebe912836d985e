package display

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"periph.io/x/conn/v3/gpio"
)

// Bus is the slice of the shift-register driver the renderers use.
type Bus interface {
	SetBitArray([]gpio.Level) error
}

var (
	framesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "display_frames_total",
		Help: "count of frames pushed to the hours:minutes display",
	})
	staleReadsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "display_stale_digit_reads_total",
		Help: "count of frames rendered from retained digits because the shared cell was locked",
	})
	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "display_frame_duration_seconds",
		Help:    "time spent shifting one frame out to the hours:minutes display",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 7),
	})
)

// position is one of the five mutually exclusive things the multiplexed face
// can light during a frame.
type position int

const (
	positionColon position = iota // the colons and the decoration point
	positionHour1
	positionHour2
	positionMinute1
	positionMinute2
)

// positionOrder fixes the round-robin cycle.  Indexing this list beats the
// bit-rotation trick: there is no way to rotate into a state that does not
// exist.
var positionOrder = [...]position{positionColon, positionHour1, positionHour2, positionMinute1, positionMinute2}

// Width is the number of shift-register lines behind the hours:minutes face.
const Width = 16

// HoursMinutes multiplexes four digits and the colons onto a common-cathode
// 4-digit display (a KW4-12041CUYA) behind a 16-line shift-register chain.
// One position is lit per call; call Display on the order of once per
// millisecond and persistence of vision does the rest.  Under-driving causes
// flicker, nothing worse.
type HoursMinutes struct {
	bus     Bus
	cell    *Cell
	preview *Preview // may be nil

	sel  int // index into positionOrder
	last Digits
}

// NewHoursMinutes returns a renderer reading digits from cell and writing
// frames to bus.  The bus must be Width lines wide.  If preview is non-nil
// the renderer keeps it fed for the debug server.
func NewHoursMinutes(bus Bus, cell *Cell, preview *Preview) *HoursMinutes {
	return &HoursMinutes{bus: bus, cell: cell, preview: preview}
}

// digitAt picks the BCD digit a position displays.
func digitAt(d Digits, p position) uint8 {
	switch p {
	case positionHour1:
		return d.Hours[0]
	case positionHour2:
		return d.Hours[1]
	case positionMinute1:
		return d.Minutes[0]
	default:
		return d.Minutes[1]
	}
}

// Display pushes one frame and advances to the next position.
func (h *HoursMinutes) Display() error {
	start := time.Now()
	pos := positionOrder[h.sel]
	h.sel = (h.sel + 1) % len(positionOrder)

	segments := glyphs[Blank]
	if pos != positionColon {
		digits, ok := h.cell.TryGet()
		if !ok {
			// The cell is mid-update; render what we rendered last.
			digits = h.last
			staleReadsCounter.Inc()
		}
		h.last = digits
		segments = glyphFor(digitAt(digits, pos))
		if h.preview != nil {
			h.preview.setHoursMinutes(digits)
		}
	}

	// Decimal-point lines light only during the colon frame.  DP3 and DP4
	// share a line and form the colon between hours and minutes; the rest
	// of the points stay dark.
	var dp [4]gpio.Level
	if pos == positionColon {
		dp = [4]gpio.Level{gpio.Low, gpio.Low, gpio.High, gpio.Low}
	}

	// Selection lines first, decimal points, then segments in the chain's
	// physical order (F G A B C D E).  The display is common cathode, so
	// the selected position's line is driven low and the rest high.
	frame := [Width]gpio.Level{
		pos != positionColon,
		pos != positionHour1,
		pos != positionHour2,
		pos != positionMinute1,
		pos != positionMinute2,
		dp[0], dp[1], dp[2], dp[3],
		segments[5], segments[6], segments[0], segments[1], segments[2], segments[3], segments[4],
	}

	if err := h.bus.SetBitArray(frame[:]); err != nil {
		return fmt.Errorf("shift hours:minutes frame: %w", err)
	}
	framesCounter.Inc()
	frameDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Run drives Display at the multiplexing cadence until the context is
// cancelled.
func (h *HoursMinutes) Run(ctx context.Context) error {
	t := time.NewTicker(time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := h.Display(); err != nil {
				return err
			}
		case <-ctx.Done():
			return fmt.Errorf("hours:minutes loop: %w", ctx.Err())
		}
	}
}
