package sim

// RoundStats describes one completed round.
type RoundStats struct {
	Tag              Tag
	Elapsed          int64 // logical ns since the start tag
	Events           int   // events delivered at this tag
	Reactions        int   // reactions executed, deadline handlers included
	PayloadsReleased int
}

// Observer receives scheduler progress notifications on the scheduler goroutine.
// Implementations must not call back into the Scheduler.
type Observer interface {
	RoundStarted(tag Tag)
	ReactionInvoked(tag Tag, r *Reaction, deadlineMissed bool)
	RoundFinished(stats RoundStats)
}
