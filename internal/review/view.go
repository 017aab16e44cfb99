package review

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Summary is the one-line header of the review.
func (m Model) Summary() string {
	accepted, rejected := m.Counts()
	return fmt.Sprintf("treecheck review: %s, %s · %d accepted, %d rejected · filter: %s",
		plural(len(m.files), "file"), plural(len(m.findings), "finding"), accepted, rejected, m.filter)
}

// View implements tea.Model
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return m.Summary() + "\n\nPress q to quit"
	}

	header := titleStyle.Render(m.Summary())
	if filtered := m.filteredFindings(); len(filtered) > 0 {
		header += dimStyle.Render(fmt.Sprintf("  [%d/%d]", m.currentFinding+1, len(filtered)))
	}

	footer := m.help.View(keys)
	if m.commenting {
		footer = m.input.View()
	}
	if m.saveErr != nil {
		footer = errorStyle.Render("saving review: "+m.saveErr.Error()) + "\n" + footer
	}

	height := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	filesWidth := m.width / 4
	codeWidth := m.width / 2
	detailsWidth := m.width - filesWidth - codeWidth

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderFilesPane(filesWidth, height),
		m.renderCodePane(codeWidth, height),
		m.renderDetailsPane(detailsWidth, height),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
