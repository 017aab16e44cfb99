package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

// MarkdownFormatter renders results as GitHub-Flavored Markdown suitable
// for PR comments, with one collapsible section per file.
type MarkdownFormatter struct{}

// severityEmoji returns the GitHub emoji shortcode for a SARIF severity level.
func severityEmoji(level string) string {
	switch level {
	case "error":
		return ":red_circle:"
	case "warning":
		return ":warning:"
	case "note":
		return ":information_source:"
	default:
		return ":grey_question:"
	}
}

// decisionBanner returns the emoji + text for a gate decision.
func decisionBanner(decision string) string {
	switch decision {
	case "pass":
		return ":white_check_mark: Pass"
	case "fail":
		return ":x: Fail"
	case "warn":
		return ":warning: Warnings"
	default:
		return decision
	}
}

// escapeCell keeps a message from breaking the table it is rendered in.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Format produces GFM Markdown output from the results.
func (f *MarkdownFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("markdown formatter: result is required")
	}
	if result.Verdict == nil {
		return nil, fmt.Errorf("markdown formatter: verdict is required")
	}

	var b strings.Builder
	results := result.results()

	byFile := make(map[string][]sarif.Result)
	severityCounts := make(map[string]int)
	for _, r := range results {
		byFile[r.URI()] = append(byFile[r.URI()], r)
		severityCounts[r.Level]++
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	b.WriteString("## treecheck Summary\n\n")
	fmt.Fprintf(&b, "**Decision:** %s | **Findings:** %d | **Files:** %d\n",
		decisionBanner(result.Verdict.Decision), len(results), len(files))

	if len(results) == 0 {
		b.WriteString("\nNo findings detected.\n")
	} else {
		b.WriteString("\n### Findings by Severity\n")
		b.WriteString("| Severity | Count |\n")
		b.WriteString("|----------|-------|\n")
		for _, level := range []string{"error", "warning", "note"} {
			if count := severityCounts[level]; count > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", level, count)
			}
		}

		b.WriteString("\n### Findings\n\n")
		for _, file := range files {
			rs := byFile[file]
			sort.SliceStable(rs, func(i, j int) bool {
				pi, pj := severityPriority(rs[i].Level), severityPriority(rs[j].Level)
				if pi != pj {
					return pi < pj
				}
				return rs[i].Region().StartLine < rs[j].Region().StartLine
			})

			name := file
			if name == "" {
				name = "(no file)"
			}
			b.WriteString("<details>\n")
			fmt.Fprintf(&b, "<summary><code>%s</code>: %s</summary>\n\n", name, plural(len(rs), "finding"))
			b.WriteString("| | Line | Check | Message |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, r := range rs {
				region := r.Region()
				fmt.Fprintf(&b, "| %s | %d:%d | `%s` | %s |\n",
					severityEmoji(r.Level), region.StartLine, region.StartColumn, r.RuleID, escapeCell(r.Message.Text))
			}
			b.WriteString("\n</details>\n\n")
		}
	}

	if s := result.Stats; s != nil && s.TotalFiles > 0 {
		fmt.Fprintf(&b, "\n%d files checked in %.1fms on average (%.0f%% cached).\n",
			s.TotalFiles, s.AvgDurationMs, s.CacheHitRate*100)
	}

	b.WriteString("---\n")
	b.WriteString("*Generated by [treecheck](" + informationURI + ")*\n")
	return []byte(b.String()), nil
}
