package review

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Review statuses
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// State is the saved review of one run.
type State struct {
	RunID      string                   `json:"run_id"`
	ReviewedAt string                   `json:"reviewed_at"`
	Reviewer   string                   `json:"reviewer"`
	Findings   map[string]FindingReview `json:"findings"`
}

// FindingReview represents review status for a single finding
type FindingReview struct {
	Status  string `json:"status,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// StateOf collects the decisions and comments of a model.
func StateOf(m Model) State {
	state := State{
		RunID:      m.opts.RunID,
		ReviewedAt: time.Now().UTC().Format(time.RFC3339),
		Reviewer:   reviewer(),
		Findings:   make(map[string]FindingReview),
	}
	for id := range m.accepted {
		state.Findings[id] = FindingReview{Status: StatusAccepted}
	}
	for id := range m.rejected {
		state.Findings[id] = FindingReview{Status: StatusRejected}
	}
	for id, c := range m.comments {
		f := state.Findings[id]
		f.Comment = c
		state.Findings[id] = f
	}
	return state
}

// SaveState writes the review state of m to path.
func SaveState(m Model, path string) error {
	data, err := json.MarshalIndent(StateOf(m), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	// Comments may quote source code.
	return os.WriteFile(path, data, 0600)
}

// LoadState reads a saved review state.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// IDs returns the reviewed finding IDs in sorted order.
func (s *State) IDs() []string {
	ids := make([]string, 0, len(s.Findings))
	for id := range s.Findings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func reviewer() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}
