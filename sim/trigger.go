package sim

import (
	"fmt"
	"sort"
	"time"
)

// TriggerKind identifies what activates a Trigger.
type TriggerKind string

const (
	KindTimer    TriggerKind = "timer"    // armed at start+Offset, re-armed every Period
	KindAction   TriggerKind = "action"   // scheduled by reactions, Offset is the minimum delay
	KindPort     TriggerKind = "port"     // set by an upstream reaction within the same tag
	KindStartup  TriggerKind = "startup"  // fires once at the start tag
	KindShutdown TriggerKind = "shutdown" // fires once after the last round
	KindDeadline TriggerKind = "deadline" // fires when a reaction misses its deadline
)

// ValidTriggerKinds is the set of recognized trigger kinds.
var ValidTriggerKinds = map[TriggerKind]bool{
	KindTimer: true, KindAction: true, KindPort: true,
	KindStartup: true, KindShutdown: true, KindDeadline: true,
}

// Trigger is a named source of reactive activation.
//
// Triggers are created while the program is assembled and live for the whole
// run. During execution the scheduler only refreshes the transient payload
// slot and, for ports, the presence flag and value.
type Trigger struct {
	Name   string
	Kind   TriggerKind
	Offset time.Duration // minimum delay added to every schedule call
	Period time.Duration // 0 = one-shot

	reactions []*Reaction

	payload *Payload // payload delivered in the current round, if any

	present bool // ports only
	value   any  // ports only
}

// NewTimer returns a timer first firing Offset after start and then every Period.
func NewTimer(name string, offset, period time.Duration) *Trigger {
	if offset < 0 || period < 0 {
		panic(fmt.Sprintf("sim: timer %q: offset and period must be non-negative", name))
	}
	return &Trigger{Name: name, Kind: KindTimer, Offset: offset, Period: period}
}

// NewAction returns a logical action with the given minimum delay.
func NewAction(name string, minDelay time.Duration) *Trigger {
	if minDelay < 0 {
		panic(fmt.Sprintf("sim: action %q: min delay must be non-negative", name))
	}
	return &Trigger{Name: name, Kind: KindAction, Offset: minDelay}
}

// NewPort returns a port connecting producing reactions to the reactions it triggers.
func NewPort(name string) *Trigger {
	return &Trigger{Name: name, Kind: KindPort}
}

// NewStartup returns a trigger that fires at the start tag.
func NewStartup(name string) *Trigger {
	return &Trigger{Name: name, Kind: KindStartup}
}

// NewShutdown returns a trigger that fires once when the scheduler terminates.
func NewShutdown(name string) *Trigger {
	return &Trigger{Name: name, Kind: KindShutdown}
}

// NewDeadlineTrigger returns a trigger whose reactions handle deadline violations.
func NewDeadlineTrigger(name string) *Trigger {
	return &Trigger{Name: name, Kind: KindDeadline}
}

// Reactions returns the reactions fired by t in ascending priority order.
// The returned slice must not be modified.
func (t *Trigger) Reactions() []*Reaction {
	return t.reactions
}

// Payload returns the payload delivered to t in the current round, or nil.
func (t *Trigger) Payload() *Payload {
	return t.payload
}

// IsPresent reports whether port t has been set at the current tag.
func (t *Trigger) IsPresent() bool {
	return t.present
}

// Value returns the value most recently written to port t at the current tag.
func (t *Trigger) Value() any {
	if !t.present {
		return nil
	}
	return t.value
}

func (t *Trigger) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.Name)
}

// addReaction keeps reactions sorted by priority so that direct invocation of
// deadline handlers happens in the same order the queue would produce.
func (t *Trigger) addReaction(r *Reaction) {
	t.reactions = append(t.reactions, r)
	sort.SliceStable(t.reactions, func(i, j int) bool {
		return t.reactions[i].Priority < t.reactions[j].Priority
	})
}

func (t *Trigger) set(v any) {
	t.present = true
	t.value = v
}

func (t *Trigger) clear() {
	t.present = false
	t.value = nil
}
