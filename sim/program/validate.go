package program

import (
	"errors"
	"fmt"
	"slices"

	"github.com/reactor-sim/reactor-sim/sim"
)

var (
	// ErrUnknownTrigger is returned when a reaction references a trigger the
	// program does not declare.
	ErrUnknownTrigger = errors.New("unknown trigger")
	// ErrPriorityOrder is returned when a reaction triggered by a port does
	// not come strictly after every reaction producing that port.
	ErrPriorityOrder = errors.New("priority order violates port dependency")
)

// Valid op names.
const (
	OpEmit     = "emit"
	OpSchedule = "schedule"
	OpBusy     = "busy"
	OpLog      = "log"
	OpCount    = "count"
)

var validOps = map[string]bool{
	OpEmit: true, OpSchedule: true, OpBusy: true, OpLog: true, OpCount: true,
}

// Validate checks that p describes a well-formed program whose priority
// indices are a valid execution order.
func (p *Program) Validate() error {
	if p.Stop < 0 {
		return fmt.Errorf("stop must be non-negative, got %v", p.Stop)
	}
	kinds := make(map[string]sim.TriggerKind, len(p.Triggers))
	for i, t := range p.Triggers {
		if err := validateTrigger(&t, i); err != nil {
			return err
		}
		if _, dup := kinds[t.Name]; dup {
			return fmt.Errorf("trigger[%d]: duplicate name %q", i, t.Name)
		}
		kinds[t.Name] = sim.TriggerKind(t.Kind)
	}

	names := make(map[string]bool, len(p.Reactions))
	for i := range p.Reactions {
		r := &p.Reactions[i]
		if r.Name == "" {
			return fmt.Errorf("reaction[%d]: name is required", i)
		}
		if names[r.Name] {
			return fmt.Errorf("reaction[%d]: duplicate name %q", i, r.Name)
		}
		names[r.Name] = true
		if err := validateReaction(r, kinds); err != nil {
			return fmt.Errorf("reaction %q: %w", r.Name, err)
		}
	}
	return p.validatePriorities()
}

func validateTrigger(t *TriggerSpec, idx int) error {
	prefix := fmt.Sprintf("trigger[%d]", idx)
	if t.Name == "" {
		return fmt.Errorf("%s: name is required", prefix)
	}
	kind := sim.TriggerKind(t.Kind)
	if !sim.ValidTriggerKinds[kind] {
		return fmt.Errorf("%s %q: unknown kind %q; valid: timer, action, port, startup, shutdown, deadline", prefix, t.Name, t.Kind)
	}
	if t.Offset < 0 || t.Period < 0 || t.MinDelay < 0 {
		return fmt.Errorf("%s %q: durations must be non-negative", prefix, t.Name)
	}
	if kind != sim.KindTimer && (t.Offset != 0 || t.Period != 0) {
		return fmt.Errorf("%s %q: offset and period only apply to timers", prefix, t.Name)
	}
	if kind != sim.KindAction && t.MinDelay != 0 {
		return fmt.Errorf("%s %q: min_delay only applies to actions", prefix, t.Name)
	}
	return nil
}

func validateReaction(r *ReactionSpec, kinds map[string]sim.TriggerKind) error {
	if len(r.Triggers) == 0 {
		return fmt.Errorf("at least one trigger required")
	}
	for _, name := range r.Triggers {
		if _, ok := kinds[name]; !ok {
			return fmt.Errorf("trigger %q: %w", name, ErrUnknownTrigger)
		}
	}
	for _, name := range r.Outputs {
		kind, ok := kinds[name]
		if !ok {
			return fmt.Errorf("output %q: %w", name, ErrUnknownTrigger)
		}
		if kind != sim.KindPort {
			return fmt.Errorf("output %q is a %s, not a port", name, kind)
		}
	}
	if r.Deadline < 0 {
		return fmt.Errorf("deadline must be non-negative, got %v", r.Deadline)
	}
	if r.OnDeadline != "" {
		if r.Deadline == 0 {
			return fmt.Errorf("on_deadline %q set without a deadline", r.OnDeadline)
		}
		kind, ok := kinds[r.OnDeadline]
		if !ok {
			return fmt.Errorf("on_deadline %q: %w", r.OnDeadline, ErrUnknownTrigger)
		}
		if kind != sim.KindDeadline {
			return fmt.Errorf("on_deadline %q is a %s, not a deadline trigger", r.OnDeadline, kind)
		}
	}
	for i, op := range r.Do {
		if err := validateOp(&op, r, kinds); err != nil {
			return fmt.Errorf("do[%d]: %w", i, err)
		}
	}
	return nil
}

func validateOp(op *OpSpec, r *ReactionSpec, kinds map[string]sim.TriggerKind) error {
	if !validOps[op.Op] {
		return fmt.Errorf("unknown op %q; valid: emit, schedule, busy, log, count", op.Op)
	}
	switch op.Op {
	case OpEmit:
		if !slices.Contains(r.Outputs, op.Target) {
			return fmt.Errorf("emit target %q is not a declared output", op.Target)
		}
	case OpSchedule:
		kind, ok := kinds[op.Target]
		if !ok {
			return fmt.Errorf("schedule target %q: %w", op.Target, ErrUnknownTrigger)
		}
		if kind != sim.KindAction {
			return fmt.Errorf("schedule target %q is a %s, not an action", op.Target, kind)
		}
		if op.Delay < 0 {
			return fmt.Errorf("schedule delay must be non-negative, got %v", op.Delay)
		}
		if op.Limit < 0 {
			return fmt.Errorf("schedule limit must be non-negative, got %d", op.Limit)
		}
	case OpBusy:
		if op.Duration <= 0 {
			return fmt.Errorf("busy duration must be positive, got %v", op.Duration)
		}
	}
	return nil
}

// validatePriorities checks that every reaction triggered by a port has a
// strictly greater priority than every reaction that may set the port, so
// that executing a tag in ascending priority never runs a consumer before
// its producer.
func (p *Program) validatePriorities() error {
	producers := make(map[string][]*ReactionSpec)
	for i := range p.Reactions {
		r := &p.Reactions[i]
		for _, out := range r.Outputs {
			producers[out] = append(producers[out], r)
		}
	}
	for i := range p.Reactions {
		c := &p.Reactions[i]
		for _, trig := range c.Triggers {
			for _, prod := range producers[trig] {
				if c.Priority <= prod.Priority {
					return fmt.Errorf("reaction %q (priority %d) reads port %q set by %q (priority %d): %w",
						c.Name, c.Priority, trig, prod.Name, prod.Priority, ErrPriorityOrder)
				}
			}
		}
	}
	return nil
}
