package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactor-sim/reactor-sim/sim/trace"
)

// createTestStore opens a store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleTrace returns a reaction-level trace of a two-round run with a
// deadline miss in the second round.
func sampleTrace(runID string) *trace.SimulationTrace {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelReactions})
	st.RunID = runID
	st.RecordReaction(trace.ReactionRecord{Elapsed: 0, Reaction: "r1", Priority: 1})
	st.RecordReaction(trace.ReactionRecord{Elapsed: 0, Reaction: "r2", Priority: 2})
	st.RecordRound(trace.RoundRecord{Elapsed: 0, Events: 1, Reactions: 2})
	st.RecordReaction(trace.ReactionRecord{Elapsed: 1000, Microstep: 1, Reaction: "on_miss", Priority: 3, Handler: true})
	st.RecordReaction(trace.ReactionRecord{Elapsed: 1000, Microstep: 1, Reaction: "r2", Priority: 2, DeadlineMissed: true})
	st.RecordRound(trace.RoundRecord{Elapsed: 1000, Microstep: 1, Events: 2, Reactions: 2, PayloadsReleased: 1})
	return st
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
	version, err := s.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestSaveTrace_LoadTrace_RoundTrip(t *testing.T) {
	// GIVEN a saved trace
	s := createTestStore(t)
	ctx := context.Background()
	want := sampleTrace("run-1")
	require.NoError(t, s.SaveTrace(ctx, "scenario-b", want))

	// WHEN it is loaded back
	got, err := s.LoadTrace(ctx, "run-1")

	// THEN records come back in recording order with every field intact
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Config, got.Config)
	assert.Equal(t, want.Rounds, got.Rounds)
	assert.Equal(t, want.Reactions, got.Reactions)
}

func TestSaveTrace_DuplicateRun_Fails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTrace(ctx, "p", sampleTrace("dup")))

	err := s.SaveTrace(ctx, "p", sampleTrace("dup"))

	assert.Error(t, err)
	// The failed transaction left the first run untouched.
	info, err := s.Run(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Rounds)
}

func TestSaveTrace_MissingRunID_Fails(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.SaveTrace(context.Background(), "p", trace.NewSimulationTrace(trace.TraceConfig{})))
	assert.Error(t, s.SaveTrace(context.Background(), "p", nil))
}

func TestLoadTrace_UnknownRun_ReturnsErrRunNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadTrace(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRuns_ListsInIDOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTrace(ctx, "b-prog", sampleTrace("b")))
	require.NoError(t, s.SaveTrace(ctx, "a-prog", sampleTrace("a")))

	runs, err := s.Runs(ctx)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, RunInfo{ID: "a", Program: "a-prog", TraceLevel: trace.TraceLevelReactions, Rounds: 2, Reactions: 4}, runs[0])
	assert.Equal(t, "b", runs[1].ID)
}

func TestRuns_Empty_ReturnsEmptySlice(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.Runs(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReactionCounts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTrace(ctx, "p", sampleTrace("run")))

	counts, err := s.ReactionCounts(ctx, "run")

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"r1": 1, "r2": 2, "on_miss": 1}, counts)

	_, err = s.ReactionCounts(ctx, "other")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
