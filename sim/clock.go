package sim

import (
	"sync"
	"time"
)

// PhysicalClock is the platform time source used for pacing and deadlines.
// Now must be monotonic.
type PhysicalClock interface {
	// Now returns the current physical instant in nanoseconds.
	Now() int64
	// After returns a channel that receives once d has elapsed, and a
	// function that releases the underlying timer early.
	After(d time.Duration) (<-chan time.Time, func())
}

// SystemClock reads the Go runtime's monotonic clock. Instants are expressed
// on the Unix nanosecond axis, anchored when the clock is created, so they
// never jump with wall-clock adjustments.
type SystemClock struct {
	origin time.Time
	base   int64
}

// NewSystemClock creates a SystemClock anchored at the current time.
func NewSystemClock() *SystemClock {
	now := time.Now()
	return &SystemClock{origin: now, base: now.UnixNano()}
}

// Now implements PhysicalClock.
func (c *SystemClock) Now() int64 {
	return c.base + int64(time.Since(c.origin))
}

// After implements PhysicalClock.
func (c *SystemClock) After(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}

// ManualClock is a virtual clock. Waiting on it advances it instantly, which
// makes paced runs deterministic and fast in tests; Advance simulates
// physical work done by a reaction.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a ManualClock reading start.
func NewManualClock(start int64) *ManualClock {
	return &ManualClock{now: start}
}

// Now implements PhysicalClock.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After implements PhysicalClock by moving the clock forward by d.
func (c *ManualClock) After(d time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	c.now += int64(d)
	at := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Unix(0, at)
	return ch, func() {}
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += int64(d)
}
