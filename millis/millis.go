// Package millis maintains a wrapping millisecond counter driven by a
// periodic tick, the way the AVR original drove one from a timer compare
// interrupt.  The tick interval and the per-tick increment are both derived
// from the timer's prescaler and compare count against a 16MHz reference, so
// Now() reports true elapsed milliseconds even though the tick period is not
// 1ms.
package millis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// referenceHz is the clock the original timer divided down from.
const referenceHz = 16_000_000

var ticksCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "millis_ticks_total",
	Help: "count of millisecond-counter ticks delivered",
})

// Counter is a monotonically increasing millisecond count since Run started,
// wrapping modulo 2^32 (about 49.7 days).  The ticker goroutine is the only
// writer; any number of goroutines may call Now.
type Counter struct {
	period    time.Duration
	increment uint32

	mu     sync.Mutex
	millis uint32
}

// New returns a Counter configured for the given prescaler and compare count.
// Only the prescalers the timer hardware supports are accepted; anything else
// is a build-time mismatch and an error here.
func New(prescaler, timerCounts uint32) (*Counter, error) {
	switch prescaler {
	case 8, 64, 256, 1024:
	default:
		return nil, fmt.Errorf("unsupported timer prescaler %d", prescaler)
	}
	increment := prescaler * timerCounts / (referenceHz / 1000)
	if increment == 0 {
		return nil, fmt.Errorf("prescaler %d with %d counts ticks faster than 1ms", prescaler, timerCounts)
	}
	return &Counter{
		period:    time.Duration(increment) * time.Millisecond,
		increment: increment,
	}, nil
}

// Run advances the counter until the context is cancelled.  The counter is
// reset to zero on entry.
func (c *Counter) Run(ctx context.Context) error {
	c.mu.Lock()
	c.millis = 0
	c.mu.Unlock()

	t := time.NewTicker(c.period)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.tick()
		case <-ctx.Done():
			return fmt.Errorf("millisecond counter: %w", ctx.Err())
		}
	}
}

func (c *Counter) tick() {
	c.mu.Lock()
	c.millis += c.increment // wraps modulo 2^32
	c.mu.Unlock()
	ticksCounter.Inc()
}

// Now returns milliseconds since Run started, modulo 2^32.
func (c *Counter) Now() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.millis
}
