package sim

import (
	"fmt"
	"slices"
	"time"
)

// ReactionFunc is the body of a reaction. It runs to completion on the
// scheduler goroutine and must not block.
type ReactionFunc func(rc *ReactionContext)

// Reaction is a schedulable unit with a static priority index.
//
// Priority comes from an offline topological sort of the program graph and is
// trusted: executing the reactions of one tag in ascending priority is a valid
// topological execution. A reaction's wiring is fixed once the scheduler starts.
type Reaction struct {
	Name     string
	Priority int
	Deadline time.Duration // 0 = no deadline

	fn        ReactionFunc
	triggers  []*Trigger
	outputs   []*Trigger
	violation *Trigger
}

// NewReaction creates a reaction and registers it with each of its triggers.
func NewReaction(name string, priority int, fn ReactionFunc, triggers ...*Trigger) *Reaction {
	if fn == nil {
		panic(fmt.Sprintf("sim: reaction %q: fn must not be nil", name))
	}
	r := &Reaction{Name: name, Priority: priority, fn: fn}
	for _, t := range triggers {
		r.triggers = append(r.triggers, t)
		t.addReaction(r)
	}
	return r
}

// Produces declares the ports r may set. Reactions of a port set by r are
// added to the running round after r returns.
func (r *Reaction) Produces(ports ...*Trigger) *Reaction {
	for _, p := range ports {
		if p.Kind != KindPort {
			panic(fmt.Sprintf("sim: reaction %q: output %s is not a port", r.Name, p))
		}
		r.outputs = append(r.outputs, p)
	}
	return r
}

// WithDeadline sets the deadline of r relative to its tag. When physical time
// has passed tag+d at the moment r is about to run, the reactions of handler
// run first. handler may be nil, in which case misses are only counted.
func (r *Reaction) WithDeadline(d time.Duration, handler *Trigger) *Reaction {
	if d <= 0 {
		panic(fmt.Sprintf("sim: reaction %q: deadline must be positive", r.Name))
	}
	r.Deadline = d
	r.violation = handler
	return r
}

// Triggers returns the triggers of r.
func (r *Reaction) Triggers() []*Trigger { return r.triggers }

// Outputs returns the ports r may set.
func (r *Reaction) Outputs() []*Trigger { return r.outputs }

// DeadlineHandler returns the deadline-violation trigger of r, if any.
func (r *Reaction) DeadlineHandler() *Trigger { return r.violation }

func (r *Reaction) String() string {
	return fmt.Sprintf("%s#%d", r.Name, r.Priority)
}

// Handle identifies a scheduled event. Zero means the schedule was rejected.
type Handle int64

// ReactionContext is the view of the scheduler handed to a running reaction.
// It is only valid until the reaction returns.
type ReactionContext struct {
	sched    *Scheduler
	reaction *Reaction
	produced []*Trigger
	done     bool
}

// Reaction returns the running reaction.
func (rc *ReactionContext) Reaction() *Reaction { return rc.reaction }

// Tag returns the current tag.
func (rc *ReactionContext) Tag() Tag { return rc.sched.current }

// Elapsed returns the logical time elapsed since the start tag.
func (rc *ReactionContext) Elapsed() time.Duration {
	return rc.sched.current.Since(rc.sched.startTime)
}

// PhysicalElapsed returns the physical time elapsed since start.
func (rc *ReactionContext) PhysicalElapsed() time.Duration {
	return time.Duration(rc.sched.clock.Now() - rc.sched.startTime)
}

// Schedule inserts an event for t at the current tag plus t.Offset plus extra.
// A zero total delay schedules the next microstep of the current instant.
// Ownership of payload (which may be nil) moves to the scheduler.
func (rc *ReactionContext) Schedule(t *Trigger, extra time.Duration, payload *Payload) Handle {
	rc.assertRunning("Schedule")
	return rc.sched.schedule(t, t.Offset+extra, payload)
}

// SetOutput writes v to port and marks it present for the rest of the tag.
func (rc *ReactionContext) SetOutput(port *Trigger, v any) {
	rc.assertRunning("SetOutput")
	if !slices.Contains(rc.reaction.outputs, port) {
		panic(fmt.Sprintf("sim: reaction %q set undeclared output %s", rc.reaction.Name, port))
	}
	port.set(v)
	rc.sched.presentPorts = append(rc.sched.presentPorts, port)
	if !slices.Contains(rc.produced, port) {
		rc.produced = append(rc.produced, port)
	}
}

// RequestStop asks the scheduler to terminate after the current round.
func (rc *ReactionContext) RequestStop() {
	rc.sched.Stop()
}

func (rc *ReactionContext) assertRunning(op string) {
	if rc.done {
		panic(fmt.Sprintf("sim: %s called after reaction %q returned", op, rc.reaction.Name))
	}
}
