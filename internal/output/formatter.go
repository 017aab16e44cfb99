// Package output renders check results in the supported report formats
// (JSON, SARIF, Markdown, Checkstyle XML, pretty terminal).
package output

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/treecheck/internal/metrics"
	"github.com/chris-regnier/treecheck/internal/sarif"
	"github.com/chris-regnier/treecheck/internal/store"
)

// Formatter renders an AnalysisOutput into a byte slice in a specific format.
type Formatter interface {
	Format(result *AnalysisOutput) ([]byte, error)
}

// AnalysisOutput holds the complete results of a run: the gate verdict, the
// SARIF log, and optionally timing stats and the checked sources.
type AnalysisOutput struct {
	Verdict  *store.Verdict
	SARIFLog *sarif.Log
	Stats    *metrics.AggregateStats
	// Sources maps artifact URIs to their content. Formatters that show
	// source snippets skip results whose file is missing.
	Sources map[string][]byte
}

// results returns the results of every run.
func (a *AnalysisOutput) results() []sarif.Result {
	if a == nil || a.SARIFLog == nil {
		return nil
	}
	var out []sarif.Result
	for _, run := range a.SARIFLog.Runs {
		out = append(out, run.Results...)
	}
	return out
}

// Formats lists the supported format names.
var Formats = []string{"json", "sarif", "markdown", "pretty", "checkstyle"}

// ResolveFormat determines the output format to use. If flagValue is non-empty,
// it is returned directly. Otherwise, "pretty" is returned for TTY output and
// "json" for non-TTY (piped) output.
func ResolveFormat(flagValue string, stdoutIsTTY bool) string {
	if flagValue != "" {
		return flagValue
	}
	if stdoutIsTTY {
		return "pretty"
	}
	return "json"
}

// NewFormatter returns a Formatter for the given format name.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "pretty":
		return &PrettyFormatter{}, nil
	case "checkstyle":
		return &CheckstyleFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// severityPriority returns a sort priority for SARIF severity levels.
func severityPriority(level string) int {
	switch level {
	case "error":
		return 0
	case "warning":
		return 1
	case "note":
		return 2
	default:
		return 3
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
