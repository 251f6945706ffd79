package sim

import (
	"fmt"
	"time"
)

// SchedulerConfig groups the run-time options of a Scheduler.
type SchedulerConfig struct {
	StopAfter time.Duration // logical duration after which the run stops (0 = no stop time)
	KeepAlive bool          // keep waiting when the event queue is empty instead of terminating
	Fast      bool          // do not pace logical time to physical time
}

// NewSchedulerConfig creates a SchedulerConfig.
func NewSchedulerConfig(stopAfter time.Duration, keepAlive, fast bool) SchedulerConfig {
	return SchedulerConfig{
		StopAfter: stopAfter,
		KeepAlive: keepAlive,
		Fast:      fast,
	}
}

// Validate checks the configuration for values the scheduler cannot honour.
func (c SchedulerConfig) Validate() error {
	if c.StopAfter < 0 {
		return fmt.Errorf("stop time must be non-negative, got %v", c.StopAfter)
	}
	return nil
}
