package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/treecheck/internal/review"
	"github.com/chris-regnier/treecheck/internal/sarif"
	"github.com/chris-regnier/treecheck/internal/store"
)

// reviewTarget is a loaded run and where its review state lives.
type reviewTarget struct {
	log       *sarif.Log
	id        string
	statePath string
}

func newReviewCmd() *cobra.Command {
	var (
		storeDir string
		root     string
	)
	cmd := &cobra.Command{
		Use:   "review [run-id | sarif-file]",
		Short: "Browse and triage the findings of a stored run",
		Long: `Review opens an interactive browser over the findings of a run stored
with "treecheck check -o <dir>", or over any SARIF file. Without an argument
the most recent run in the store is opened.

Decisions and comments are saved to review.json next to the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			target, err := loadReviewTarget(cmd, storeDir, arg)
			if err != nil {
				return err
			}
			m, err := review.NewModel(target.log, review.Options{
				RunID:     target.id,
				Root:      root,
				StatePath: target.statePath,
			})
			if err != nil {
				return err
			}

			p := tea.NewProgram(m, tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			final, err := p.Run()
			if err != nil {
				return errors.Wrap(err, "running review")
			}
			if fm, ok := final.(review.Model); ok {
				if err := fm.SaveErr(); err != nil {
					return errors.Wrap(err, "saving review")
				}
				accepted, rejected := fm.Counts()
				logger.Info("review saved", "run", target.id, "accepted", accepted, "rejected", rejected, "path", target.statePath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&storeDir, "store", ".treecheck/runs", "Directory of stored runs")
	cmd.Flags().StringVar(&root, "root", ".", "Directory the result paths are relative to")
	return cmd
}

// loadReviewTarget resolves arg as a SARIF file, a run ID in the store, or
// the latest stored run when empty.
func loadReviewTarget(cmd *cobra.Command, storeDir, arg string) (*reviewTarget, error) {
	ctx := cmd.Context()
	if arg != "" && (strings.HasSuffix(arg, ".json") || strings.HasSuffix(arg, ".sarif")) {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, errors.Wrap(err, "reading SARIF")
		}
		var log sarif.Log
		if err := json.Unmarshal(data, &log); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", arg)
		}
		base := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		return &reviewTarget{log: &log, id: base, statePath: strings.TrimSuffix(arg, filepath.Ext(arg)) + ".review.json"}, nil
	}

	fs := store.NewFileStore(storeDir)
	id := arg
	if id == "" {
		latest, err := fs.Latest(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.WithHint(err, "run `treecheck check -o "+storeDir+"` first")
		}
		if err != nil {
			return nil, err
		}
		id = latest
	}
	log, err := fs.ReadSARIF(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "reading run %s", id)
	}
	return &reviewTarget{log: log, id: id, statePath: filepath.Join(storeDir, id, "review.json")}, nil
}
