package season

import "sync/atomic"

// Cycle is the season cycle counter of one world. A single goroutine (the
// tick loop) advances it; any goroutine may take a snapshot.
type Cycle struct {
	ticks    atomic.Int64
	calendar Calendar
}

// NewCycle creates a counter starting at the given absolute tick count.
func NewCycle(cal Calendar, start int64) *Cycle {
	c := &Cycle{calendar: cal}
	c.ticks.Store(start)
	return c
}

// Calendar returns the calendar the counter is measured against.
func (c *Cycle) Calendar() Calendar {
	return c.calendar
}

// Advance moves the cycle forward by one tick and returns the new count.
// The counter wraps at the cycle duration so it never overflows.
func (c *Cycle) Advance() int64 {
	next := c.ticks.Load() + 1
	if next >= c.calendar.CycleDuration() {
		next = 0
	}
	c.ticks.Store(next)
	return next
}

// Set replaces the counter value.
func (c *Cycle) Set(ticks int64) {
	c.ticks.Store(floorMod(ticks, c.calendar.CycleDuration()))
}

// Ticks returns the raw counter value.
func (c *Cycle) Ticks() int64 {
	return c.ticks.Load()
}

// Snapshot returns the current calendar position.
func (c *Cycle) Snapshot() Time {
	return c.calendar.At(c.ticks.Load())
}
