package sim

import (
	"fmt"
	"math"
	"time"
)

const (
	// Never is the instant before every other instant.
	Never int64 = math.MinInt64
	// Forever is the instant after every other instant. Gating on Forever
	// blocks until the gate is interrupted.
	Forever int64 = math.MaxInt64
)

// Tag is a superdense logical-time coordinate.
// Tags are totally ordered by Time, then Microstep.
//
// Time is a nanosecond instant on the same axis as the PhysicalClock.
// Microstep wraps after 2^32 consecutive zero-delay schedules at one instant;
// realistic programs stay far below that limit and it is not checked.
type Tag struct {
	Time      int64
	Microstep uint32
}

// Compare returns -1 if a < b, 0 if a == b and +1 if a > b.
func Compare(a, b Tag) int {
	switch {
	case a.Time < b.Time:
		return -1
	case a.Time > b.Time:
		return 1
	case a.Microstep < b.Microstep:
		return -1
	case a.Microstep > b.Microstep:
		return 1
	}
	return 0
}

// Before reports whether t is strictly earlier than other.
func (t Tag) Before(other Tag) bool { return Compare(t, other) < 0 }

// Equal reports whether t and other denote the same tag.
func (t Tag) Equal(other Tag) bool { return t == other }

// Delay returns the tag d after t in superdense time.
// A zero delay stays at the same instant one microstep later; a positive
// delay advances time and resets the microstep. The result saturates at
// Forever. Negative delays are rejected by the scheduler before reaching here.
func (t Tag) Delay(d time.Duration) Tag {
	if d == 0 {
		return Tag{Time: t.Time, Microstep: t.Microstep + 1}
	}
	if t.Time > Forever-int64(d) {
		return Tag{Time: Forever}
	}
	return Tag{Time: t.Time + int64(d)}
}

// Since returns the logical duration elapsed from origin to t.Time.
func (t Tag) Since(origin int64) time.Duration {
	return time.Duration(t.Time - origin)
}

func (t Tag) String() string {
	switch t.Time {
	case Forever:
		return fmt.Sprintf("(forever, %d)", t.Microstep)
	case Never:
		return fmt.Sprintf("(never, %d)", t.Microstep)
	}
	return fmt.Sprintf("(%d, %d)", t.Time, t.Microstep)
}
