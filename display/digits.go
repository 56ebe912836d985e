package display

import "sync"

// Digits is the time split into BCD digits, tens first, exactly as the RTC
// reports them.
type Digits struct {
	Hours   [2]uint8
	Minutes [2]uint8
	Seconds [2]uint8
}

// Cell shares one Digits value between the main loop, which writes it once
// per RTC read, and the renderers, which may run from any goroutine.  Set
// replaces all six digits atomically; a reader never sees digits from two
// different RTC reads.
type Cell struct {
	mu sync.Mutex
	d  Digits
}

// Set publishes a new set of digits.
func (c *Cell) Set(d Digits) {
	c.mu.Lock()
	c.d = d
	c.mu.Unlock()
}

// TryGet returns the current digits without blocking.  If the cell is
// mid-update it reports false and the caller falls back to whatever it
// rendered last; a renderer must never stall a frame waiting for the lock.
func (c *Cell) TryGet() (Digits, bool) {
	if !c.mu.TryLock() {
		return Digits{}, false
	}
	defer c.mu.Unlock()
	return c.d, true
}
