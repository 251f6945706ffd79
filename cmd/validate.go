package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/reactor-sim/reactor-sim/sim/program"
)

var validateProgram string

// validateCmd checks a program table without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a reactor program",
	Run: func(cmd *cobra.Command, args []string) {
		if err := validate(cmd.Context(), cmd, validateProgram); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func registerValidateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&validateProgram, "program", "", "Program table (path or URL)")
}

// validate loads and assembles the program at url and prints its summary.
func validate(ctx context.Context, cmd *cobra.Command, url string) error {
	if url == "" {
		return fmt.Errorf("program not provided; use --program")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := program.Load(ctx, afs.New(), url)
	if err != nil {
		return err
	}
	if _, err := program.Build(p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK %s\n", p.Summary())
	return nil
}
