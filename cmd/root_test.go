package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/reactor-sim/reactor-sim/sim"
	"github.com/reactor-sim/reactor-sim/sim/program"
	"github.com/reactor-sim/reactor-sim/sim/store"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

// newTestRunCmd returns a run command with its own flag values, so tests
// never share Changed state.
func newTestRunCmd(t *testing.T, args ...string) (*cobra.Command, *runFlags) {
	t.Helper()
	f := &runFlags{}
	c := &cobra.Command{Use: "run"}
	registerRunFlags(c, f)
	require.NoError(t, c.Flags().Parse(args))
	return c, f
}

func examplePath(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "examples", name+".yaml"))
	require.NoError(t, err)
	return path
}

func TestRunProgram_ScenarioA_SavesTraceToStore(t *testing.T) {
	// GIVEN scenario A with reaction tracing into a SQLite file
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	c, f := newTestRunCmd(t,
		"--program", examplePath(t, "scenario_a"),
		"--trace", "reactions",
		"--trace-db", dbPath,
	)

	// WHEN it runs on a manual clock
	s, err := runProgram(context.Background(), c, f, sim.NewManualClock(0))

	// THEN four rounds run and the trace is persisted under the run ID
	require.NoError(t, err)
	assert.Equal(t, 4, s.Metrics.Rounds)
	assert.Equal(t, 3000*time.Nanosecond, s.Metrics.ElapsedLogical)

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	saved, err := db.LoadTrace(context.Background(), s.RunID)
	require.NoError(t, err)
	assert.Equal(t, s.Trace.Rounds, saved.Rounds)
	assert.Equal(t, s.Trace.Reactions, saved.Reactions)

	// AND the runs command prints it back
	var out bytes.Buffer
	c.SetOut(&out)
	require.NoError(t, showRuns(context.Background(), c, dbPath, ""))
	assert.Contains(t, out.String(), s.RunID)
	assert.Contains(t, out.String(), "scenario-a")

	out.Reset()
	require.NoError(t, showRuns(context.Background(), c, dbPath, s.RunID))
	assert.True(t, strings.HasPrefix(out.String(), "round t=0 m=0 events=1 reactions=2 released=0\n  r1#1\n  r2#2\n"))
	assert.Contains(t, out.String(), "=== Trace Summary ===")
}

func TestRunProgram_ChangedFlagsOverrideProgram(t *testing.T) {
	// GIVEN scenario A (stop 3us) with --stop 1us on the command line
	c, f := newTestRunCmd(t, "--program", examplePath(t, "scenario_a"), "--stop", "1us", "--fast")

	// WHEN it runs
	s, err := runProgram(context.Background(), c, f, sim.NewManualClock(0))

	// THEN the flag wins and only the rounds at 0 and 1us run
	require.NoError(t, err)
	assert.Equal(t, 2, s.Metrics.Rounds)
	assert.Nil(t, s.Trace)
}

func TestApplyOverrides_UnchangedFlagsKeepProgramValues(t *testing.T) {
	// GIVEN a program config and a command whose flags were not set
	c, f := newTestRunCmd(t)
	cfg := sim.NewSchedulerConfig(5*time.Second, true, true)

	// WHEN overrides are applied
	got := applyOverrides(c, f, cfg)

	// THEN flag defaults do not clobber the program
	assert.Equal(t, cfg, got)

	// AND an explicit --keepalive=false does
	c, f = newTestRunCmd(t, "--keepalive=false")
	got = applyOverrides(c, f, cfg)
	assert.False(t, got.KeepAlive)
	assert.True(t, got.Fast)
}

func TestRunProgram_ConfigErrors(t *testing.T) {
	fs := afs.New()
	ctx := context.Background()
	badURL := "mem://localhost/cmd/bad.yaml"
	require.NoError(t, fs.Upload(ctx, badURL, file.DefaultFileOsMode, strings.NewReader(`
triggers: [{name: t, kind: timer}, {name: p, kind: port}]
reactions:
  - {name: produce, priority: 3, triggers: [t], outputs: [p]}
  - {name: consume, priority: 1, triggers: [p]}
`)))

	tests := []struct {
		name    string
		args    []string
		wantIs  error
		wantMsg string
	}{
		{name: "missing program", args: nil, wantMsg: "program not provided"},
		{name: "bad trace level", args: []string{"--program", badURL, "--trace", "verbose"}, wantMsg: "unknown trace level"},
		{name: "store without trace", args: []string{"--program", badURL, "--trace-db", "x.db"}, wantMsg: "requires --trace"},
		{name: "priority order", args: []string{"--program", badURL}, wantIs: program.ErrPriorityOrder},
		{name: "negative stop", args: []string{"--program", examplePath(t, "scenario_a"), "--stop=-1s"}, wantMsg: "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := newTestRunCmd(t, tt.args...)

			s, err := runProgram(ctx, c, f, sim.NewManualClock(0))

			require.Error(t, err)
			assert.Nil(t, s, "no scheduler may run on a configuration error")
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRunProgram_CancelledContext_StopsKeepAliveRun(t *testing.T) {
	c, f := newTestRunCmd(t, "--program", examplePath(t, "scenario_c"), "--keepalive")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := runProgram(ctx, c, f, sim.NewManualClock(0))

	require.NoError(t, err)
	assert.Equal(t, sim.StateTerminated, s.State())
}

func TestValidate_PrintsSummary(t *testing.T) {
	c := &cobra.Command{}
	var out bytes.Buffer
	c.SetOut(&out)

	require.NoError(t, validate(context.Background(), c, examplePath(t, "scenario_b")))

	assert.Contains(t, out.String(), `OK program "scenario-b": 2 triggers, 3 reactions`)
}

func TestValidate_MissingProgram_Fails(t *testing.T) {
	assert.Error(t, validate(context.Background(), &cobra.Command{}, ""))
	assert.Error(t, validate(context.Background(), &cobra.Command{}, "mem://localhost/cmd/none.yaml"))
}

func TestShowRuns_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	err := showRuns(context.Background(), &cobra.Command{}, dbPath, "nope")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}
