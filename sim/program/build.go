package program

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reactor-sim/reactor-sim/sim"
)

// Assembly is a program turned into scheduler objects.
type Assembly struct {
	Name      string
	Triggers  []*sim.Trigger // declaration order
	Reactions []*sim.Reaction

	// Counts tallies the count ops executed, by reaction name.
	Counts map[string]int

	program *Program
	byName  map[string]*sim.Trigger
}

// BuildOption configures Build.
type BuildOption func(*builder)

// WithClock sets the clock busy ops burn time on. A clock with an Advance
// method (such as sim.ManualClock) is advanced; any other clock is slept on.
func WithClock(c sim.PhysicalClock) BuildOption {
	return func(b *builder) { b.clock = c }
}

type builder struct {
	clock sim.PhysicalClock
}

type advancer interface {
	Advance(d time.Duration)
}

// Build validates p and creates its triggers and reactions.
func Build(p *Program, opts ...BuildOption) (*Assembly, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	a := &Assembly{
		Name:    p.Name,
		Counts:  make(map[string]int),
		program: p,
		byName:  make(map[string]*sim.Trigger, len(p.Triggers)),
	}
	for _, ts := range p.Triggers {
		t := newTrigger(ts)
		a.Triggers = append(a.Triggers, t)
		a.byName[ts.Name] = t
	}
	for i := range p.Reactions {
		rs := &p.Reactions[i]
		triggers := make([]*sim.Trigger, 0, len(rs.Triggers))
		for _, name := range rs.Triggers {
			triggers = append(triggers, a.byName[name])
		}
		r := sim.NewReaction(rs.Name, rs.Priority, b.body(a, rs, triggers), triggers...)
		for _, out := range rs.Outputs {
			r.Produces(a.byName[out])
		}
		if rs.Deadline > 0 {
			var handler *sim.Trigger
			if rs.OnDeadline != "" {
				handler = a.byName[rs.OnDeadline]
			}
			r.WithDeadline(rs.Deadline, handler)
		}
		a.Reactions = append(a.Reactions, r)
	}
	logrus.Debugf("assembled %s", p.Summary())
	return a, nil
}

func newTrigger(ts TriggerSpec) *sim.Trigger {
	switch sim.TriggerKind(ts.Kind) {
	case sim.KindTimer:
		return sim.NewTimer(ts.Name, ts.Offset, ts.Period)
	case sim.KindAction:
		return sim.NewAction(ts.Name, ts.MinDelay)
	case sim.KindPort:
		return sim.NewPort(ts.Name)
	case sim.KindStartup:
		return sim.NewStartup(ts.Name)
	case sim.KindShutdown:
		return sim.NewShutdown(ts.Name)
	case sim.KindDeadline:
		return sim.NewDeadlineTrigger(ts.Name)
	}
	panic(fmt.Sprintf("program: unvalidated trigger kind %q", ts.Kind))
}

// Config returns the scheduler configuration declared by the program.
func (a *Assembly) Config() sim.SchedulerConfig {
	return sim.NewSchedulerConfig(a.program.Stop, a.program.KeepAlive, a.program.Fast)
}

// Trigger returns the trigger with the given name, or nil.
func (a *Assembly) Trigger(name string) *sim.Trigger {
	return a.byName[name]
}

// Install registers the program's triggers with s.
func (a *Assembly) Install(s *sim.Scheduler) {
	s.AddTriggers(a.Triggers...)
}

// body compiles the ops of rs into a reaction body.
func (b *builder) body(a *Assembly, rs *ReactionSpec, triggers []*sim.Trigger) sim.ReactionFunc {
	steps := make([]func(rc *sim.ReactionContext), 0, len(rs.Do))
	for _, op := range rs.Do {
		steps = append(steps, b.step(a, rs.Name, op, triggers))
	}
	return func(rc *sim.ReactionContext) {
		for _, step := range steps {
			step(rc)
		}
	}
}

func (b *builder) step(a *Assembly, name string, op OpSpec, triggers []*sim.Trigger) func(rc *sim.ReactionContext) {
	switch op.Op {
	case OpEmit:
		port := a.byName[op.Target]
		return func(rc *sim.ReactionContext) {
			v := op.Value
			if v == nil {
				v = input(triggers)
			}
			rc.SetOutput(port, v)
		}
	case OpSchedule:
		target := a.byName[op.Target]
		scheduled := 0
		return func(rc *sim.ReactionContext) {
			if op.Limit > 0 && scheduled >= op.Limit {
				return
			}
			scheduled++
			var payload *sim.Payload
			if v := op.Value; v != nil {
				payload = sim.NewPayload(v)
			} else if v := input(triggers); v != nil {
				payload = sim.NewPayload(v)
			}
			rc.Schedule(target, op.Delay, payload)
		}
	case OpBusy:
		return func(*sim.ReactionContext) {
			if adv, ok := b.clock.(advancer); ok {
				adv.Advance(op.Duration)
				return
			}
			time.Sleep(op.Duration)
		}
	case OpLog:
		return func(rc *sim.ReactionContext) {
			logrus.Infof("[tag %s] %s: input=%v", rc.Tag(), name, input(triggers))
		}
	case OpCount:
		return func(*sim.ReactionContext) {
			a.Counts[name]++
		}
	}
	panic(fmt.Sprintf("program: unvalidated op %q", op.Op))
}

// input returns the value a reaction sees from its triggers: the value of
// the first present port, else the payload value of the first trigger
// carrying one.
func input(triggers []*sim.Trigger) any {
	for _, t := range triggers {
		if t.Kind == sim.KindPort && t.IsPresent() {
			return t.Value()
		}
	}
	for _, t := range triggers {
		if p := t.Payload(); p != nil {
			return p.Value()
		}
	}
	return nil
}
