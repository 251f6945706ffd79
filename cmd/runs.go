package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reactor-sim/reactor-sim/sim/store"
	"github.com/reactor-sim/reactor-sim/sim/trace"
)

var (
	runsDB    string // SQLite trace file
	runsRunID string // Run to print; empty lists all runs
)

// runsCmd inspects traces saved with run --trace-db
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved runs or print the trace of one run",
	Run: func(cmd *cobra.Command, args []string) {
		if err := showRuns(cmd.Context(), cmd, runsDB, runsRunID); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func registerRunsFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runsDB, "trace-db", "", "SQLite trace file written by run --trace-db")
	cmd.Flags().StringVar(&runsRunID, "run", "", "Run ID to print (default: list runs)")
}

func showRuns(ctx context.Context, cmd *cobra.Command, path, runID string) error {
	if path == "" {
		return fmt.Errorf("trace database not provided; use --trace-db")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if runID == "" {
		runs, err := db.Runs(ctx)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %-20s trace=%-9s rounds=%d reactions=%d\n",
				r.ID, r.Program, r.TraceLevel, r.Rounds, r.Reactions)
		}
		return nil
	}

	st, err := db.LoadTrace(ctx, runID)
	if err != nil {
		return err
	}
	if err := trace.WriteText(out, st); err != nil {
		return err
	}
	printTraceSummary(out, trace.Summarize(st))
	return nil
}
