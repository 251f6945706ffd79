package sim

import "container/heap"

// eventHeap implements heap.Interface and orders events by tag.
// Ties are broken by insertion sequence so that same-tag events are delivered
// in the order they were scheduled.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if c := Compare(h[i].tag, h[j].tag); c != 0 {
		return c < 0
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

// EventQueue is a min-priority queue of events keyed by tag.
type EventQueue struct {
	events eventHeap
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make(eventHeap, 0)}
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return q.events.Len() }

// Push inserts an event.
func (q *EventQueue) Push(e *Event) {
	heap.Push(&q.events, e)
}

// Pop removes and returns the earliest event, or nil if the queue is empty.
func (q *EventQueue) Pop() *Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.events).(*Event)
}

// Peek returns the earliest event without removing it, or nil.
func (q *EventQueue) Peek() *Event {
	if q.Len() == 0 {
		return nil
	}
	return q.events[0]
}
