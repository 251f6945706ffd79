package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompare_OrdersByTimeThenMicrostep(t *testing.T) {
	tests := []struct {
		name string
		a, b Tag
		want int
	}{
		{"earlier time", Tag{Time: 1, Microstep: 9}, Tag{Time: 2}, -1},
		{"later time", Tag{Time: 3}, Tag{Time: 2, Microstep: 5}, 1},
		{"same time lower microstep", Tag{Time: 2, Microstep: 1}, Tag{Time: 2, Microstep: 2}, -1},
		{"same time higher microstep", Tag{Time: 2, Microstep: 3}, Tag{Time: 2, Microstep: 2}, 1},
		{"equal", Tag{Time: 2, Microstep: 2}, Tag{Time: 2, Microstep: 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestTagDelay_ZeroDelayIncrementsMicrostep(t *testing.T) {
	// GIVEN a tag at (100, 2)
	tag := Tag{Time: 100, Microstep: 2}

	// WHEN delayed by zero
	got := tag.Delay(0)

	// THEN time is unchanged and the microstep advances by one
	assert.Equal(t, Tag{Time: 100, Microstep: 3}, got)
	assert.True(t, tag.Before(got))
}

func TestTagDelay_PositiveDelayAdvancesTimeAndResetsMicrostep(t *testing.T) {
	tag := Tag{Time: 100, Microstep: 7}
	got := tag.Delay(50 * time.Nanosecond)
	assert.Equal(t, Tag{Time: 150, Microstep: 0}, got)
}

func TestTagDelay_SaturatesAtForever(t *testing.T) {
	tag := Tag{Time: math.MaxInt64 - 10}
	got := tag.Delay(time.Hour)
	assert.Equal(t, Forever, got.Time)
}

func TestTag_SinceAndString(t *testing.T) {
	tag := Tag{Time: 1500, Microstep: 1}
	assert.Equal(t, 500*time.Nanosecond, tag.Since(1000))
	assert.Equal(t, "(1500, 1)", tag.String())
	assert.Equal(t, "(forever, 0)", Tag{Time: Forever}.String())
	assert.Equal(t, "(never, 0)", Tag{Time: Never}.String())
}
