package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/treecheck/internal/output"
)

var (
	// Version information injected by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagQuiet   bool
	flagVerbose bool
	flagDebug   bool
	flagLogFmt  string

	logger = slog.Default()
)

// errGateFailed makes the process exit non-zero without printing anything
// beyond the report itself.
var errGateFailed = errors.New("gate failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "treecheck",
		Short:         "Syntax-tree checks for source code with structured output",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := output.SetupLogger(cmd.ErrOrStderr(), output.LogOptions{
				Quiet:   flagQuiet,
				Verbose: flagVerbose,
				Debug:   flagDebug,
				Format:  flagLogFmt,
			})
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(logger)
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress log output")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log progress information")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log debug information with source locations")
	root.PersistentFlags().StringVar(&flagLogFmt, "log-format", "text", "Log encoding: text or json")

	root.AddCommand(
		newCheckCmd(),
		newChecksCmd(),
		newExplainCmd(),
		newServeCmd(),
		newMCPCmd(),
		newLSPCmd(),
		newReviewCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "treecheck %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built at: %s\n", date)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errGateFailed) {
			fmt.Fprintf(os.Stderr, "treecheck: %v\n", err)
			for _, h := range errors.GetAllHints(err) {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", h)
			}
		}
		os.Exit(1)
	}
}
