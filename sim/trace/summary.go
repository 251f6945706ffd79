package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalRounds        int
	TotalReactions     int
	DeadlineMisses     int
	HandlerInvocations int
	PayloadsReleased   int
	MaxMicrostep       uint32
	ReactionCounts     map[string]int // reaction name → invocations
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ReactionCounts: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalRounds = len(st.Rounds)
	for _, r := range st.Rounds {
		summary.TotalReactions += r.Reactions
		summary.PayloadsReleased += r.PayloadsReleased
		if r.Microstep > summary.MaxMicrostep {
			summary.MaxMicrostep = r.Microstep
		}
	}

	for _, rec := range st.Reactions {
		summary.ReactionCounts[rec.Reaction]++
		if rec.DeadlineMissed {
			summary.DeadlineMisses++
		}
		if rec.Handler {
			summary.HandlerInvocations++
		}
	}

	return summary
}
