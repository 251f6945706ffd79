package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reactor-sim/reactor-sim/sim/trace"
)

// version is reported in telemetry resources; overridden at build time with -ldflags.
var version = "dev"

// runFlags holds the CLI flags of the run command.
type runFlags struct {
	program    string        // URL or path of the program table
	stop       time.Duration // Logical stop-after duration (overrides the program)
	keepAlive  bool          // Keep waiting on an empty event queue (overrides the program)
	fast       bool          // Skip physical pacing (overrides the program)
	logLevel   string        // Log verbosity level
	traceLevel string        // none, rounds or reactions
	traceDB    string        // SQLite file the trace is saved to
	otelOut    string        // File (or "-" for stdout) OpenTelemetry spans are written to
}

var runOpts runFlags

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "reactor-sim",
	Short: "Deterministic reactor runtime scheduler",
}

// runCmd executes a program table until it terminates
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a reactor program",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(runOpts.logLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := runProgram(ctx, cmd, &runOpts, nil)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		s.Metrics.Print()
		if s.Trace != nil {
			printTraceSummary(cmd.OutOrStdout(), trace.Summarize(s.Trace))
		}
		logrus.Info("Run complete.")
	},
}

func setLogLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", name)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd, &runOpts)
	registerValidateFlags(validateCmd)
	registerRunsFlags(runsCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runsCmd)
}

func registerRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVar(&f.program, "program", "", "Program table (path or URL, e.g. file:///p.yaml, mem://host/p.yaml)")
	cmd.Flags().DurationVar(&f.stop, "stop", 0, "Logical stop-after duration, 0 for none (overrides the program)")
	cmd.Flags().BoolVar(&f.keepAlive, "keepalive", false, "Keep waiting when the event queue is empty (overrides the program)")
	cmd.Flags().BoolVar(&f.fast, "fast", false, "Do not pace logical time to physical time (overrides the program)")
	cmd.Flags().StringVar(&f.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&f.traceLevel, "trace", string(trace.TraceLevelNone), "Trace level (none, rounds, reactions)")
	cmd.Flags().StringVar(&f.traceDB, "trace-db", "", "SQLite file to save the trace to (requires --trace)")
	cmd.Flags().StringVar(&f.otelOut, "otel-out", "", "Write OpenTelemetry spans to this file (- for stdout)")
}
