package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	severityStyles = map[string]lipgloss.Style{
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		"note":    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}

	acceptedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	rejectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// markdownRenderer keeps one glamour renderer per wrap width.
type markdownRenderer struct {
	width int
	r     *glamour.TermRenderer
}

func (mr *markdownRenderer) render(text string, width int) (string, error) {
	if mr.r == nil || mr.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		mr.r, mr.width = r, width
	}
	out, err := mr.r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// detailsMarkdown describes the selected finding as markdown.
func (m Model) detailsMarkdown() string {
	f, ok := m.current()
	if !ok {
		return "No findings to display"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (%s)\n\n", f.RuleID, f.Level)
	if f.Message.Text != "" {
		b.WriteString(f.Message.Text)
		b.WriteString("\n\n")
	}
	if key, ok := f.Properties["treecheck/key"].(string); ok && key != "" {
		fmt.Fprintf(&b, "Message key: `%s`\n\n", key)
	}
	if uri := f.URI(); uri != "" {
		region := f.Region()
		fmt.Fprintf(&b, "Location: `%s:%d:%d`\n\n", uri, region.StartLine, region.StartColumn)
	}
	if rule, ok := m.rules[f.RuleID]; ok && rule.FullDescription != nil && rule.FullDescription.Text != "" {
		b.WriteString("---\n\n")
		b.WriteString(rule.FullDescription.Text)
		b.WriteString("\n\n")
	}
	if c := m.comments[FindingID(f)]; c != "" {
		fmt.Fprintf(&b, "> %s\n", c)
	}
	return b.String()
}

// renderDetailsPane renders the finding details with markdown formatting
func (m Model) renderDetailsPane(width, height int) string {
	var b strings.Builder
	b.WriteString(paneHeaderStyle.Render("Details"))
	b.WriteString("  ")

	if f, ok := m.current(); ok {
		if style, ok := severityStyles[f.Level]; ok {
			b.WriteString(style.Render(strings.ToUpper(f.Level)))
		}
		id := FindingID(f)
		switch {
		case m.accepted[id]:
			b.WriteString("  " + acceptedStyle.Render("✓ Accepted"))
		case m.rejected[id]:
			b.WriteString("  " + rejectedStyle.Render("✗ Rejected"))
		}
	}
	b.WriteString("\n\n")

	content := m.detailsMarkdown()
	rendered, err := m.markdown.render(content, max(width-4, 20))
	if err != nil {
		rendered = content
	}
	b.WriteString(rendered)
	return m.frame(PaneDetails, width, height, b.String())
}
