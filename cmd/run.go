package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/reactor-sim/reactor-sim/sim"
	"github.com/reactor-sim/reactor-sim/sim/program"
	"github.com/reactor-sim/reactor-sim/sim/store"
	"github.com/reactor-sim/reactor-sim/sim/telemetry"
	"github.com/reactor-sim/reactor-sim/sim/trace"
)

// applyOverrides replaces program settings with CLI flags the user set
// explicitly. Flag defaults never override the program.
func applyOverrides(cmd *cobra.Command, f *runFlags, cfg sim.SchedulerConfig) sim.SchedulerConfig {
	if cmd.Flags().Changed("stop") {
		cfg.StopAfter = f.stop
	}
	if cmd.Flags().Changed("keepalive") {
		cfg.KeepAlive = f.keepAlive
	}
	if cmd.Flags().Changed("fast") {
		cfg.Fast = f.fast
	}
	return cfg
}

// runProgram loads, runs and wraps up the program named by f. A nil clock
// selects the system clock. Configuration errors are returned before any
// round runs.
func runProgram(ctx context.Context, cmd *cobra.Command, f *runFlags, clock sim.PhysicalClock) (*sim.Scheduler, error) {
	if f.program == "" {
		return nil, fmt.Errorf("program not provided; use --program")
	}
	if !trace.IsValidTraceLevel(f.traceLevel) {
		return nil, fmt.Errorf("unknown trace level %q; valid: none, rounds, reactions", f.traceLevel)
	}
	traceConfig := trace.TraceConfig{Level: trace.TraceLevel(f.traceLevel)}
	if f.traceDB != "" && !traceConfig.Enabled() {
		return nil, fmt.Errorf("--trace-db requires --trace rounds or reactions")
	}

	p, err := program.Load(ctx, afs.New(), f.program)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = sim.NewSystemClock()
	}
	a, err := program.Build(p, program.WithClock(clock))
	if err != nil {
		return nil, err
	}
	cfg := applyOverrides(cmd, f, a.Config())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var db *store.Store
	if f.traceDB != "" {
		if db, err = store.Open(f.traceDB); err != nil {
			return nil, fmt.Errorf("trace store: %w", err)
		}
		defer db.Close()
	}

	s := sim.NewScheduler(cfg, clock)
	a.Install(s)
	s.EnableTrace(traceConfig)

	var obs *telemetry.RoundObserver
	if f.otelOut != "" {
		if err := telemetry.Init("reactor-sim", version, f.otelOut); err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			if err := telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logrus.Warnf("telemetry shutdown: %v", err)
			}
		}()
		obs = telemetry.NewRoundObserver(ctx, telemetry.Tracer(), s.RunID, p.Name)
		s.Observe(obs)
	}

	logrus.Infof("Running %s", p.Summary())
	unregister := context.AfterFunc(ctx, s.Stop)
	defer unregister()
	m := s.Run(ctx)
	if obs != nil {
		obs.Finish(m)
	}

	if db != nil {
		if err := db.SaveTrace(context.WithoutCancel(ctx), p.Name, s.Trace); err != nil {
			return s, fmt.Errorf("trace store: %w", err)
		}
		logrus.Infof("Saved trace of run %s to %s", s.RunID, f.traceDB)
	}
	return s, nil
}

// printTraceSummary writes the aggregate trace statistics to w.
func printTraceSummary(w io.Writer, sum *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Rounds               : %d\n", sum.TotalRounds)
	fmt.Fprintf(w, "Reactions            : %d\n", sum.TotalReactions)
	fmt.Fprintf(w, "Max microstep        : %d\n", sum.MaxMicrostep)
	if sum.DeadlineMisses > 0 {
		fmt.Fprintf(w, "Deadline misses      : %d (handlers run: %d)\n", sum.DeadlineMisses, sum.HandlerInvocations)
	}
	names := make([]string, 0, len(sum.ReactionCounts))
	for name := range sum.ReactionCounts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-18s : %d\n", name, sum.ReactionCounts[name])
	}
}
