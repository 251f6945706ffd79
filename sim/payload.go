package sim

import "fmt"

type payloadState int

const (
	payloadOwned     payloadState = iota // held by the code that created it
	payloadQueued                        // moved into a pending Event
	payloadDelivered                     // visible to reactions of the delivering round
	payloadReleased                      // reclaimed; must not be touched again
)

func (s payloadState) String() string {
	switch s {
	case payloadOwned:
		return "owned"
	case payloadQueued:
		return "queued"
	case payloadDelivered:
		return "delivered"
	case payloadReleased:
		return "released"
	}
	return fmt.Sprintf("payloadState(%d)", int(s))
}

// Payload is an exclusively owned message value carried by an Event.
//
// Ownership moves, it is never shared: Schedule takes the payload from the
// caller, the scheduler exposes it to the reactions of the delivering round
// and releases it exactly once after the last of those reactions returns.
// Handing a payload to Schedule twice, or reading it after release, panics.
type Payload struct {
	value     any
	state     payloadState
	onRelease func(any)
}

// NewPayload wraps v in a payload owned by the caller.
func NewPayload(v any) *Payload {
	return &Payload{value: v}
}

// NewPayloadWithRelease is like NewPayload, but onRelease is invoked with the
// value when the scheduler reclaims the payload (e.g. to return a buffer to a
// sync.Pool).
func NewPayloadWithRelease(v any, onRelease func(any)) *Payload {
	return &Payload{value: v, onRelease: onRelease}
}

// Value returns the carried value.
func (p *Payload) Value() any {
	if p.state == payloadReleased {
		panic("sim: payload accessed after release")
	}
	return p.value
}

// Released reports whether the scheduler has reclaimed the payload.
func (p *Payload) Released() bool {
	return p.state == payloadReleased
}

// take moves ownership into the event queue.
func (p *Payload) take() {
	if p.state != payloadOwned {
		panic(fmt.Sprintf("sim: payload transferred while %s; ownership can move only once", p.state))
	}
	p.state = payloadQueued
}

func (p *Payload) deliver() {
	p.state = payloadDelivered
}

func (p *Payload) release() {
	if p.state == payloadReleased {
		panic("sim: payload released twice")
	}
	p.state = payloadReleased
	if p.onRelease != nil {
		p.onRelease(p.value)
	}
	p.value = nil
}
