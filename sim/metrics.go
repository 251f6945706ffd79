// Tracks run-wide counters and the elapsed-time report printed at wrapup.

package sim

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Metrics aggregates statistics about a scheduler run for final reporting.
type Metrics struct {
	Rounds             int // rounds executed, shutdown round included
	ReactionsExecuted  int // reaction invocations, deadline handlers included
	HandlerInvocations int // deadline-violation reaction invocations
	DeadlineMisses     int
	EventsScheduled    int
	EventsDelivered    int
	SchedulesRejected  int // schedule calls with a negative total delay
	PayloadsReleased   int
	MaxMicrostep       uint32

	FinalTag        Tag
	ElapsedLogical  time.Duration
	ElapsedPhysical time.Duration
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Print writes the wrapup report to stdout.
func (m *Metrics) Print() {
	m.Fprint(os.Stdout)
}

// Fprint writes the wrapup report to w.
func (m *Metrics) Fprint(w io.Writer) {
	fmt.Fprintln(w, "=== Reactor Run Summary ===")
	fmt.Fprintf(w, "Elapsed logical time (in nsec): %d\n", m.ElapsedLogical.Nanoseconds())
	fmt.Fprintf(w, "Elapsed physical time (in nsec): %d\n", m.ElapsedPhysical.Nanoseconds())
	fmt.Fprintf(w, "Rounds               : %d\n", m.Rounds)
	fmt.Fprintf(w, "Reactions executed   : %d\n", m.ReactionsExecuted)
	fmt.Fprintf(w, "Events delivered     : %d\n", m.EventsDelivered)
	fmt.Fprintf(w, "Payloads released    : %d\n", m.PayloadsReleased)
	if m.DeadlineMisses > 0 {
		fmt.Fprintf(w, "Deadline misses      : %d (handlers run: %d)\n", m.DeadlineMisses, m.HandlerInvocations)
	}
	if m.SchedulesRejected > 0 {
		fmt.Fprintf(w, "Rejected schedules   : %d\n", m.SchedulesRejected)
	}
}
