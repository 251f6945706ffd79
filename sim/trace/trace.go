package trace

// TraceLevel controls the verbosity of run tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRounds captures one record per completed round.
	TraceLevelRounds TraceLevel = "rounds"
	// TraceLevelReactions captures rounds plus every reaction invocation.
	TraceLevelReactions TraceLevel = "reactions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelRounds:    true,
	TraceLevelReactions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether any records are collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelRounds || c.Level == TraceLevelReactions
}

// SimulationTrace collects round and reaction records during a scheduler run.
type SimulationTrace struct {
	Config    TraceConfig
	RunID     string
	Rounds    []RoundRecord
	Reactions []ReactionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:    config,
		Rounds:    make([]RoundRecord, 0),
		Reactions: make([]ReactionRecord, 0),
	}
}

// RecordRound appends a round record.
func (st *SimulationTrace) RecordRound(record RoundRecord) {
	st.Rounds = append(st.Rounds, record)
}

// RecordReaction appends a reaction record. It is a no-op unless the trace
// level is TraceLevelReactions.
func (st *SimulationTrace) RecordReaction(record ReactionRecord) {
	if st.Config.Level != TraceLevelReactions {
		return
	}
	st.Reactions = append(st.Reactions, record)
}
