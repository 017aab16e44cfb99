package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	activeBorder = lipgloss.Color("170")

	paneHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	fileItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedFileStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// frame draws a pane border, highlighted when the pane is active.
func (m Model) frame(p Pane, width, height int, body string) string {
	style := paneStyle
	if m.activePane == p {
		style = style.BorderForeground(activeBorder)
	}
	return style.
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		MaxHeight(max(height, 3)).
		Render(body)
}

// renderFilesPane lists the files with findings and their counts.
func (m Model) renderFilesPane(width, height int) string {
	var b strings.Builder
	b.WriteString(paneHeaderStyle.Render("Files"))
	b.WriteString("\n\n")

	files := m.filteredFiles()
	selected := ""
	if f, ok := m.current(); ok {
		selected = f.URI()
	}

	list := m.fileList()
	if len(list) == 0 {
		b.WriteString(dimStyle.Render("No findings"))
	}
	for _, path := range list {
		count := dimStyle.Render(fmt.Sprintf("(%d)", len(files[path])))
		if path == selected {
			b.WriteString(selectedFileStyle.Render("▸ " + path + " "))
			b.WriteString(count)
		} else {
			b.WriteString(fileItemStyle.Render(path + " "))
			b.WriteString(count)
		}
		b.WriteString("\n")
	}
	return m.frame(PaneFiles, width, height, b.String())
}
