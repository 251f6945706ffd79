package sim

// Event is a pending delivery of a trigger at a tag, optionally carrying a payload.
type Event struct {
	tag     Tag
	seq     int64 // insertion order, breaks ties between events of the same tag
	trigger *Trigger
	payload *Payload
}

// Tag returns the delivery tag of the event.
func (e *Event) Tag() Tag { return e.tag }

// Trigger returns the trigger the event delivers.
func (e *Event) Trigger() *Trigger { return e.trigger }

// Handle returns the handle returned when the event was scheduled.
func (e *Event) Handle() Handle { return Handle(e.seq) }

// eventPool holds delivered events until they can be reused.
//
// Events carrying a payload wait in pendingFree until the round that
// delivered them has finished, because reactions read the payload through the
// trigger for the whole round. Events without a payload go straight to
// recyclable. Pooled events carry the zero tag, so pool management never pays
// any ordering cost.
type eventPool struct {
	pendingFree []*Event
	recyclable  []*Event
}

// get returns a cleared event, reusing a recyclable one when available.
func (p *eventPool) get() *Event {
	n := len(p.recyclable)
	if n == 0 {
		return &Event{}
	}
	e := p.recyclable[n-1]
	p.recyclable[n-1] = nil
	p.recyclable = p.recyclable[:n-1]
	return e
}

// file stores a delivered event in the pool matching its payload.
func (p *eventPool) file(e *Event) {
	e.tag = Tag{}
	e.seq = 0
	if e.payload == nil {
		p.recycle(e)
		return
	}
	p.pendingFree = append(p.pendingFree, e)
}

func (p *eventPool) recycle(e *Event) {
	e.trigger = nil
	e.payload = nil
	p.recyclable = append(p.recyclable, e)
}

// reclaim releases every pending payload and recycles the events that carried
// them. It returns the number of payloads released.
func (p *eventPool) reclaim() int {
	n := len(p.pendingFree)
	for i, e := range p.pendingFree {
		if e.trigger.payload == e.payload {
			e.trigger.payload = nil
		}
		e.payload.release()
		p.pendingFree[i] = nil
		p.recycle(e)
	}
	p.pendingFree = p.pendingFree[:0]
	return n
}
