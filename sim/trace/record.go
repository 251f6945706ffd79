// Package trace provides run-trace recording for reactor scheduler analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// RoundRecord captures one completed round (all events of one tag).
type RoundRecord struct {
	Elapsed          int64  // logical ns since the start tag
	Microstep        uint32
	Events           int // events delivered at the tag
	Reactions        int // reactions executed, deadline handlers included
	PayloadsReleased int
}

// ReactionRecord captures a single reaction invocation.
type ReactionRecord struct {
	Elapsed        int64
	Microstep      uint32
	Reaction       string
	Priority       int
	DeadlineMissed bool // the reaction started after tag+deadline
	Handler        bool // invoked directly as a deadline-violation handler
}

// SameTag reports whether the reaction ran in the round described by r.
func (rec ReactionRecord) SameTag(r RoundRecord) bool {
	return rec.Elapsed == r.Elapsed && rec.Microstep == r.Microstep
}
