package filter

import (
	"bytes"
	"strings"

	"github.com/gobwas/glob"

	"github.com/chris-regnier/treecheck/internal/astcheck"
)

const directivePrefix = "treecheck:"

// CommentFilter honours inline directives in the source:
//
//	// treecheck:off [check-glob]
//	// treecheck:on [check-glob]
//	// treecheck:ignore-next-line [check-glob]
//
// Directives are found by scanning lines, so no comment nodes are needed.
type CommentFilter struct{}

type region struct {
	from, to int // inclusive; to == 0 means end of file
	checks   glob.Glob
}

func (r region) covers(v astcheck.Violation) bool {
	if v.Line < r.from || (r.to != 0 && v.Line > r.to) {
		return false
	}
	return r.checks == nil || r.checks.Match(v.CheckID)
}

func (CommentFilter) Apply(res *astcheck.FileResult, src []byte) {
	if len(res.Violations) == 0 || !bytes.Contains(src, []byte(directivePrefix)) {
		return
	}
	regions := scanDirectives(src)
	if len(regions) == 0 {
		return
	}
	keep := res.Violations[:0]
	for _, v := range res.Violations {
		covered := false
		for _, r := range regions {
			if r.covers(v) {
				covered = true
				break
			}
		}
		if !covered {
			keep = append(keep, v)
		}
	}
	res.Violations = keep
}

func scanDirectives(src []byte) []region {
	var (
		regions []region
		open    = map[string]int{} // pattern -> index into regions
	)
	// No line length limit: a long minified line must not hide the
	// directives that follow it.
	for i, raw := range bytes.Split(src, []byte("\n")) {
		line := i + 1
		if !bytes.Contains(raw, []byte(directivePrefix)) {
			continue
		}
		text := strings.TrimSuffix(string(raw), "\r")
		idx := strings.Index(text, directivePrefix)
		if idx < 0 || !inComment(text[:idx]) {
			continue
		}
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(text[idx+len(directivePrefix):]), "*/"))
		if len(fields) == 0 {
			continue
		}
		pattern := ""
		if len(fields) > 1 {
			pattern = fields[1]
		}
		var g glob.Glob
		if pattern != "" {
			var err error
			if g, err = glob.Compile(pattern); err != nil {
				continue
			}
		}
		switch fields[0] {
		case "off":
			if _, ok := open[pattern]; !ok {
				open[pattern] = len(regions)
				regions = append(regions, region{from: line, checks: g})
			}
		case "on":
			if i, ok := open[pattern]; ok {
				regions[i].to = line
				delete(open, pattern)
			}
		case "ignore-next-line":
			regions = append(regions, region{from: line + 1, to: line + 1, checks: g})
		}
	}
	return regions
}

// inComment reports whether the text before a directive ends in a comment
// opener, so directives inside string literals are ignored.
func inComment(before string) bool {
	t := strings.TrimRight(before, " \t")
	return strings.HasSuffix(t, "//") || strings.HasSuffix(t, "/*") || strings.HasSuffix(t, "#") ||
		strings.HasSuffix(t, "--") || strings.HasSuffix(t, "*")
}
