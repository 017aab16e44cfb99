// Package store persists the SARIF log and gate verdict of each run.
package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

// ErrNotFound is returned when a run or one of its documents is missing.
var ErrNotFound = errors.New("run not found")

// Verdict is the outcome of the gate policy for one run.
type Verdict struct {
	Decision         string         `json:"decision"`
	Reason           string         `json:"reason"`
	RelevantFindings []sarif.Result `json:"relevant_findings,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Store keeps runs addressed by an ID assigned on WriteSARIF. IDs sort
// chronologically.
type Store interface {
	WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error)
	WriteVerdict(ctx context.Context, id string, verdict *Verdict) error
	ReadSARIF(ctx context.Context, id string) (*sarif.Log, error)
	ReadVerdict(ctx context.Context, id string) (*Verdict, error)
	// List returns run IDs newest first.
	List(ctx context.Context) ([]string, error)
}

var _ Store = (*FileStore)(nil)
