package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/treecheck/internal/cache"
	"github.com/chris-regnier/treecheck/internal/input"
	"github.com/chris-regnier/treecheck/internal/lsp"
	"github.com/chris-regnier/treecheck/internal/output"
	"github.com/chris-regnier/treecheck/internal/runner"
	"github.com/chris-regnier/treecheck/internal/sarif"
)

func newLSPCmd() *cobra.Command {
	var (
		configPath string
		locale     string
		debounce   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start treecheck in LSP mode to check files as you edit them.

The server speaks JSON-RPC on stdin/stdout and publishes diagnostics for
open documents. Results are cached in memory for the life of the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg, ".", locale, logger)
			if err != nil {
				return err
			}
			reportConfigErrors(cmd.ErrOrStderr(), eng.configErr)

			mem := cache.NewMemoryCache()
			serverCfg := lsp.DefaultServerConfig()
			serverCfg.Version = version
			if debounce > 0 {
				serverCfg.DebounceDuration = debounce
			}
			if len(cfg.Exclude) > 0 {
				serverCfg.IgnorePatterns = append(serverCfg.IgnorePatterns, cfg.Exclude...)
			}

			server := lsp.NewServerWithConfig(
				bufio.NewReader(os.Stdin),
				bufio.NewWriter(os.Stdout),
				eng.lintFunc(mem, output.WithComponent(logger, "lsp")),
				serverCfg,
			)
			server.SetCache(mem)
			server.SetLogger(output.WithComponent(logger, "lsp"))

			if err := server.Run(cmd.Context()); err != nil {
				return errors.Wrap(err, "LSP server error")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Project config file (default .treecheck/config.yaml)")
	cmd.Flags().StringVar(&locale, "locale", "", "Message locale")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before a changed document is checked (default 300ms)")
	return cmd
}

// lintFunc checks editor buffers through a runner backed by c, returning
// the filtered SARIF results of one document.
func (e *engine) lintFunc(c cache.Cache, logger *slog.Logger) lsp.LintFunc {
	r := runner.New(e.walker, runner.Options{
		Workers:     1,
		Cache:       c,
		Fingerprint: e.fingerprint,
		Filters:     e.filters,
		Logger:      logger,
	})
	return func(ctx context.Context, path string, content []byte) ([]sarif.Result, error) {
		fr, err := r.CheckFile(ctx, input.Artifact{Path: path, Content: content})
		if err != nil {
			return nil, err
		}
		log := e.assemble(&runner.Report{Files: []runner.FileReport{fr}}, "source")
		return log.Runs[0].Results, nil
	}
}
