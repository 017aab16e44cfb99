// Package filter drops violations after a walk: configured suppressions
// and inline comment directives.
package filter

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"

	"github.com/chris-regnier/treecheck/internal/astcheck"
)

// Filter removes violations from a file result in place.
type Filter interface {
	Apply(res *astcheck.FileResult, src []byte)
}

// Chain applies filters in order.
type Chain []Filter

func (c Chain) Apply(res *astcheck.FileResult, src []byte) {
	for _, f := range c {
		f.Apply(res, src)
	}
}

// Suppression is one configured suppression. Empty fields match everything.
type Suppression struct {
	Files  string `yaml:"files" json:"files,omitempty"`
	Checks string `yaml:"checks" json:"checks,omitempty"`
	Lines  string `yaml:"lines" json:"lines,omitempty"`
}

type lineRange struct{ from, to int }

type compiledSuppression struct {
	files  string
	checks glob.Glob
	lines  []lineRange
}

// SuppressionFilter drops violations matched by any suppression.
type SuppressionFilter struct {
	entries []compiledSuppression
}

// NewSuppressionFilter validates and compiles the suppressions.
func NewSuppressionFilter(sups []Suppression) (*SuppressionFilter, error) {
	f := &SuppressionFilter{}
	for i, s := range sups {
		c := compiledSuppression{files: filepath.ToSlash(s.Files)}
		if c.files != "" && !doublestar.ValidatePattern(c.files) {
			return nil, fmt.Errorf("suppression %d: invalid file pattern %q", i, s.Files)
		}
		if s.Checks != "" {
			g, err := glob.Compile(s.Checks)
			if err != nil {
				return nil, fmt.Errorf("suppression %d: invalid check pattern %q: %w", i, s.Checks, err)
			}
			c.checks = g
		}
		lines, err := parseLines(s.Lines)
		if err != nil {
			return nil, fmt.Errorf("suppression %d: %w", i, err)
		}
		c.lines = lines
		f.entries = append(f.entries, c)
	}
	return f, nil
}

// parseLines reads "1-10,15" into ranges.
func parseLines(spec string) ([]lineRange, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var out []lineRange
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		from, to, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid line range %q", part)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(to)); err != nil {
				return nil, fmt.Errorf("invalid line range %q", part)
			}
		}
		if a < 1 || b < a {
			return nil, fmt.Errorf("invalid line range %q", part)
		}
		out = append(out, lineRange{a, b})
	}
	return out, nil
}

func (c *compiledSuppression) matches(path string, v astcheck.Violation) bool {
	if c.files != "" {
		ok, _ := doublestar.Match(c.files, path)
		if !ok {
			return false
		}
	}
	if c.checks != nil && !c.checks.Match(v.CheckID) {
		return false
	}
	if len(c.lines) == 0 {
		return true
	}
	for _, r := range c.lines {
		if v.Line >= r.from && v.Line <= r.to {
			return true
		}
	}
	return false
}

func (f *SuppressionFilter) Apply(res *astcheck.FileResult, _ []byte) {
	if len(f.entries) == 0 {
		return
	}
	path := filepath.ToSlash(res.Path)
	keep := res.Violations[:0]
	for _, v := range res.Violations {
		suppressed := false
		for i := range f.entries {
			if f.entries[i].matches(path, v) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			keep = append(keep, v)
		}
	}
	res.Violations = keep
}
