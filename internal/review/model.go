// Package review is an interactive terminal browser for the findings of a
// treecheck run. Findings can be accepted, rejected and commented on, and
// the decisions are saved as JSON next to the run.
package review

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

// Pane represents which pane is currently active
type Pane int

const (
	PaneFiles Pane = iota
	PaneCode
	PaneDetails
)

// Filter represents the severity filter
type Filter int

const (
	FilterAll Filter = iota
	FilterErrors
	FilterWarnings
)

func (f Filter) String() string {
	switch f {
	case FilterErrors:
		return "errors"
	case FilterWarnings:
		return "warnings+"
	default:
		return "all"
	}
}

// Options locate the sources and the review state of a run.
type Options struct {
	// RunID names the run in the saved state.
	RunID string
	// Root is the directory result URIs are relative to.
	Root string
	// StatePath is where decisions are saved. Empty disables saving.
	StatePath string
}

// Model is the bubbletea model for the review TUI
type Model struct {
	log      *sarif.Log
	opts     Options
	rules    map[string]sarif.ReportingDescriptor
	findings []sarif.Result
	files    map[string][]sarif.Result

	// currentFinding indexes the filtered findings.
	currentFinding int
	activePane     Pane
	filter         Filter

	accepted map[string]bool
	rejected map[string]bool
	comments map[string]string

	commenting bool
	input      textinput.Model
	help       help.Model
	markdown   *markdownRenderer
	saveErr    error

	width  int
	height int
}

// NewModel builds a model over the first run of log and restores any
// decisions saved at opts.StatePath.
func NewModel(log *sarif.Log, opts Options) (Model, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	in := textinput.New()
	in.Placeholder = "comment"
	in.Prompt = "comment: "
	in.CharLimit = 500

	m := Model{
		log:      log,
		opts:     opts,
		rules:    make(map[string]sarif.ReportingDescriptor),
		findings: []sarif.Result{},
		files:    make(map[string][]sarif.Result),
		accepted: make(map[string]bool),
		rejected: make(map[string]bool),
		comments: make(map[string]string),
		input:    in,
		help:     help.New(),
		markdown: &markdownRenderer{},
	}

	if len(log.Runs) > 0 {
		for _, d := range log.Runs[0].Tool.Driver.Rules {
			m.rules[d.ID] = d
		}
		for _, result := range log.Runs[0].Results {
			m.findings = append(m.findings, result)
			if uri := result.URI(); uri != "" {
				m.files[uri] = append(m.files[uri], result)
			}
		}
	}

	if opts.StatePath != "" {
		state, err := LoadState(opts.StatePath)
		switch {
		case err == nil:
			m.restore(state)
		case !os.IsNotExist(err):
			return Model{}, fmt.Errorf("loading review state: %w", err)
		}
	}
	return m, nil
}

// FindingID identifies a finding across runs of the same sources.
func FindingID(r sarif.Result) string {
	region := r.Region()
	return fmt.Sprintf("%s:%s:%d:%d", r.RuleID, r.URI(), region.StartLine, region.StartColumn)
}

func (m *Model) restore(state *State) {
	for id, f := range state.Findings {
		switch f.Status {
		case StatusAccepted:
			m.accepted[id] = true
		case StatusRejected:
			m.rejected[id] = true
		}
		if f.Comment != "" {
			m.comments[id] = f.Comment
		}
	}
}

// Counts returns how many findings are accepted and rejected.
func (m Model) Counts() (accepted, rejected int) {
	return len(m.accepted), len(m.rejected)
}
