package review

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(5).
			Align(lipgloss.Right)

	highlightedLineStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236"))
)

// contextLines is how many lines are shown around the finding.
const contextLines = 5

// renderCodePane shows the source around the selected finding.
func (m Model) renderCodePane(width, height int) string {
	var b strings.Builder
	b.WriteString(paneHeaderStyle.Render("Code"))
	b.WriteString("\n\n")

	f, ok := m.current()
	switch {
	case !ok:
		b.WriteString(dimStyle.Render("No findings to display"))
	case f.URI() == "":
		b.WriteString(dimStyle.Render("No location information"))
	default:
		line := f.Region().StartLine
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s:%d", f.URI(), line)))
		b.WriteString("\n\n")
		b.WriteString(m.readCodeWithContext(f.URI(), line))
	}
	return m.frame(PaneCode, width, height, b.String())
}

// sourcePath resolves a result URI against the review root.
func (m Model) sourcePath(uri string) string {
	path := filepath.FromSlash(uri)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.opts.Root, path)
}

// readCodeWithContext returns the lines around target with syntax
// highlighting and the target line marked.
func (m Model) readCodeWithContext(uri string, target int) string {
	path := m.sourcePath(uri)
	file, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	defer file.Close()

	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Sprintf("Error scanning file: %v", err)
	}

	start := max(target-contextLines, 1)
	end := min(target+contextLines, len(lines))

	var b strings.Builder
	for i := start; i <= end; i++ {
		num := lineNumberStyle.Render(fmt.Sprintf("%d", i))
		content, err := highlightLine(lines[i-1], lexer)
		if err != nil {
			content = lines[i-1]
		}
		if i == target {
			num = highlightedLineStyle.Render(num)
			content = highlightedLineStyle.Render(content)
		}
		fmt.Fprintf(&b, "%s │ %s\n", num, content)
	}
	return b.String()
}

// highlightLine applies syntax highlighting to a single line of code
func highlightLine(line string, lexer chroma.Lexer) (string, error) {
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	var b strings.Builder
	if err := formatters.TTY16m.Format(&b, style, iterator); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
