package sim

import (
	"context"
	"time"
)

// WaitResult is the outcome of Gate.WaitUntil.
type WaitResult int

const (
	// WaitReached means physical time reached the target.
	WaitReached WaitResult = iota
	// WaitInterrupted means the wait ended early (Interrupt or context).
	WaitInterrupted
)

func (r WaitResult) String() string {
	if r == WaitReached {
		return "reached"
	}
	return "interrupted"
}

// Gate blocks the scheduler until physical time reaches a target instant.
type Gate struct {
	clock PhysicalClock
	wake  chan struct{} // buffered (size 1); coalesces interrupts
}

// NewGate creates a Gate reading clock.
func NewGate(clock PhysicalClock) *Gate {
	return &Gate{clock: clock, wake: make(chan struct{}, 1)}
}

// Interrupt wakes a pending or the next WaitUntil. Safe for concurrent use.
func (g *Gate) Interrupt() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// WaitUntil blocks until the clock reads at least target, the gate is
// interrupted or ctx is done. Timer wake-ups are re-checked against the
// clock, so early or spurious firings never report WaitReached.
// A target of Forever only returns on interruption.
func (g *Gate) WaitUntil(ctx context.Context, target int64) WaitResult {
	for {
		if ctx.Err() != nil {
			return WaitInterrupted
		}
		var fire <-chan time.Time
		release := func() {}
		if target != Forever {
			now := g.clock.Now()
			if now >= target {
				return WaitReached
			}
			fire, release = g.clock.After(time.Duration(target - now))
		}
		select {
		case <-fire:
			release()
		case <-g.wake:
			release()
			return WaitInterrupted
		case <-ctx.Done():
			release()
			return WaitInterrupted
		}
	}
}
