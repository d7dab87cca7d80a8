package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "intake-engine",
	Short: "Juvenile intake eligibility and risk decision engine",
	Long: `intake-engine evaluates juvenile intake referrals.

For each case snapshot it:
  - Scores the detention risk instrument and assigns a risk band
  - Applies mandatory and supervisor-approved discretionary overrides
  - Matches diversion program eligibility from the program catalog
  - Reviews every less-restrictive alternative before detention
  - Records the decision in a hash-chained audit trail`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code for its error.
// SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := cli.SetupSignalHandler(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
