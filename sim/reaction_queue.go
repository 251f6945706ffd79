package sim

import "container/heap"

// reactionEntry wraps a Reaction with a sequence ID for stable ordering
// between reactions that share a priority index.
type reactionEntry struct {
	reaction *Reaction
	seqID    int64
}

type reactionHeap []reactionEntry

func (h reactionHeap) Len() int { return len(h) }

func (h reactionHeap) Less(i, j int) bool {
	if h[i].reaction.Priority != h[j].reaction.Priority {
		return h[i].reaction.Priority < h[j].reaction.Priority
	}
	return h[i].seqID < h[j].seqID
}

func (h reactionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *reactionHeap) Push(x any) {
	*h = append(*h, x.(reactionEntry))
}

func (h *reactionHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ReactionQueue is the per-round min-priority queue of ready reactions.
//
// A reaction enters the queue at most once per round: pushing a reaction that
// is already queued, or that has already run in this round, is a no-op.
// Reset starts a new round.
type ReactionQueue struct {
	entries reactionHeap
	seen    map[*Reaction]struct{}
	nextSeq int64
}

// NewReactionQueue creates an empty reaction queue.
func NewReactionQueue() *ReactionQueue {
	return &ReactionQueue{
		entries: make(reactionHeap, 0),
		seen:    make(map[*Reaction]struct{}),
	}
}

// Len returns the number of queued reactions.
func (q *ReactionQueue) Len() int { return q.entries.Len() }

// Push queues r unless it was already queued this round. It reports whether
// r was added.
func (q *ReactionQueue) Push(r *Reaction) bool {
	if _, ok := q.seen[r]; ok {
		return false
	}
	q.seen[r] = struct{}{}
	q.nextSeq++
	heap.Push(&q.entries, reactionEntry{reaction: r, seqID: q.nextSeq})
	return true
}

// Pop removes and returns the lowest-priority-index reaction, or nil.
func (q *ReactionQueue) Pop() *Reaction {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.entries).(reactionEntry).reaction
}

// Reset forgets which reactions ran in the finished round.
func (q *ReactionQueue) Reset() {
	if q.Len() != 0 {
		panic("sim: reaction queue reset while reactions are pending")
	}
	clear(q.seen)
	q.nextSeq = 0
}
