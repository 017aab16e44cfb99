package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

var (
	fileStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color("170"))

	positionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	levelStyles = map[string]lipgloss.Style{
		"error":   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		"warning": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		"note":    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}

	decisionStyles = map[string]lipgloss.Style{
		"pass": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		"warn": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		"fail": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}

	gutterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(5).
			Align(lipgloss.Right)
)

// PrettyFormatter renders results as human-readable terminal output grouped
// by file. With Color set, styles and syntax highlighting are applied;
// without it the output is plain text.
type PrettyFormatter struct {
	Color bool
}

func (f *PrettyFormatter) paint(style lipgloss.Style, s string) string {
	if !f.Color {
		return s
	}
	return style.Render(s)
}

// Format produces pretty terminal output.
func (f *PrettyFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("pretty formatter: result is required")
	}

	var b strings.Builder
	results := result.results()

	byFile := make(map[string][]sarif.Result)
	counts := make(map[string]int)
	for _, r := range results {
		byFile[r.URI()] = append(byFile[r.URI()], r)
		counts[r.Level]++
	}
	files := make([]string, 0, len(byFile))
	for name := range byFile {
		files = append(files, name)
	}
	sort.Strings(files)

	for _, name := range files {
		rs := byFile[name]
		sort.SliceStable(rs, func(i, j int) bool {
			gi, gj := rs[i].Region(), rs[j].Region()
			if gi.StartLine != gj.StartLine {
				return gi.StartLine < gj.StartLine
			}
			return gi.StartColumn < gj.StartColumn
		})

		b.WriteString(f.paint(fileStyle, name))
		b.WriteString("\n")
		lines := sourceLines(result.Sources[name])
		for _, r := range rs {
			region := r.Region()
			fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
				f.paint(positionStyle, fmt.Sprintf("%d:%d", region.StartLine, region.StartColumn)),
				f.paint(levelStyles[r.Level], fmt.Sprintf("%-7s", r.Level)),
				r.Message.Text,
				f.paint(ruleStyle, r.RuleID),
			)
			if region.StartLine >= 1 && region.StartLine <= len(lines) {
				b.WriteString(f.snippet(name, lines[region.StartLine-1], region))
			}
		}
		b.WriteString("\n")
	}

	if len(results) == 0 {
		b.WriteString("No findings.\n")
	} else {
		fmt.Fprintf(&b, "%s, %s, %s in %s\n",
			plural(counts["error"], "error"),
			plural(counts["warning"], "warning"),
			plural(counts["note"], "note"),
			plural(len(files), "file"))
	}
	if result.Verdict != nil {
		d := result.Verdict.Decision
		fmt.Fprintf(&b, "Decision: %s\n", f.paint(decisionStyles[d], d))
	}
	return []byte(b.String()), nil
}

func sourceLines(src []byte) []string {
	if len(src) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(src), "\n"), "\n")
}

// snippet renders the offending source line and a caret under the column.
func (f *PrettyFormatter) snippet(path, raw string, region sarif.Region) string {
	raw = strings.TrimRight(raw, "\r")
	line := strings.ReplaceAll(raw, "\t", "    ")
	code := line
	if f.Color {
		if hl, err := highlightLine(path, line); err == nil {
			code = hl
		}
	}
	gutter := fmt.Sprintf("%5d", region.StartLine)
	if f.Color {
		gutter = gutterStyle.Render(fmt.Sprintf("%d", region.StartLine))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  %s │ %s\n", gutter, code)
	if region.StartColumn > 0 {
		fmt.Fprintf(&b, "  %s │ %s^\n", strings.Repeat(" ", 5), strings.Repeat(" ", caretOffset(raw, region.StartColumn)))
	}
	return b.String()
}

// caretOffset converts a 1-based byte column into a display offset, with
// tabs expanded to four spaces.
func caretOffset(line string, column int) int {
	prefix := line
	if column-1 < len(line) {
		prefix = line[:column-1]
	}
	return len([]rune(prefix)) + 3*strings.Count(prefix, "\t")
}

// highlightLine applies syntax highlighting to a single line of code.
func highlightLine(path, line string) (string, error) {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	var buf bytes.Buffer
	if err := formatters.TTY256.Format(&buf, style, iterator); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
