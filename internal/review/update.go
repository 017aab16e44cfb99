package review

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	NextFile key.Binding
	PrevFile key.Binding
	Accept   key.Binding
	Reject   key.Binding
	Clear    key.Binding
	Comment  key.Binding
	Pane     key.Binding
	Errors   key.Binding
	Warnings key.Binding
	All      key.Binding
	Help     key.Binding
	Quit     key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Accept, k.Reject, k.Comment, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.NextFile, k.PrevFile},
		{k.Accept, k.Reject, k.Clear, k.Comment},
		{k.Errors, k.Warnings, k.All, k.Pane},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("n", "j", "down"), key.WithHelp("n/j", "next finding")),
	Prev:     key.NewBinding(key.WithKeys("p", "k", "up"), key.WithHelp("p/k", "previous finding")),
	NextFile: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next file")),
	PrevFile: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous file")),
	Accept:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept")),
	Reject:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reject")),
	Clear:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undecide")),
	Comment:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
	Pane:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Errors:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "errors only")),
	Warnings: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "warnings and errors")),
	All:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "all findings")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save and quit")),
	Confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save comment")),
	Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - len(m.input.Prompt) - 2
		return m, nil

	case tea.KeyMsg:
		if m.commenting {
			return m.updateComment(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtered := m.filteredFindings()
	switch {
	case key.Matches(msg, keys.Quit):
		m.saveErr = m.save()
		return m, tea.Quit

	case key.Matches(msg, keys.Next):
		if len(filtered) > 0 {
			m.currentFinding = (m.currentFinding + 1) % len(filtered)
		}

	case key.Matches(msg, keys.Prev):
		if len(filtered) > 0 {
			m.currentFinding = (m.currentFinding - 1 + len(filtered)) % len(filtered)
		}

	case key.Matches(msg, keys.NextFile):
		m.jumpFile(1)

	case key.Matches(msg, keys.PrevFile):
		m.jumpFile(-1)

	case key.Matches(msg, keys.Accept):
		if f, ok := m.current(); ok {
			id := FindingID(f)
			m.accepted[id] = true
			delete(m.rejected, id)
		}

	case key.Matches(msg, keys.Reject):
		if f, ok := m.current(); ok {
			id := FindingID(f)
			m.rejected[id] = true
			delete(m.accepted, id)
		}

	case key.Matches(msg, keys.Clear):
		if f, ok := m.current(); ok {
			id := FindingID(f)
			delete(m.accepted, id)
			delete(m.rejected, id)
		}

	case key.Matches(msg, keys.Comment):
		if f, ok := m.current(); ok {
			m.commenting = true
			m.input.SetValue(m.comments[FindingID(f)])
			m.input.CursorEnd()
			return m, m.input.Focus()
		}

	case key.Matches(msg, keys.Pane):
		m.activePane = (m.activePane + 1) % 3

	case key.Matches(msg, keys.Errors):
		m.setFilter(FilterErrors)

	case key.Matches(msg, keys.Warnings):
		m.setFilter(FilterWarnings)

	case key.Matches(msg, keys.All):
		m.setFilter(FilterAll)

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateComment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		if f, ok := m.current(); ok {
			id := FindingID(f)
			if text := strings.TrimSpace(m.input.Value()); text != "" {
				m.comments[id] = text
			} else {
				delete(m.comments, id)
			}
		}
		m.stopComment()
		return m, nil

	case key.Matches(msg, keys.Cancel):
		m.stopComment()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stopComment() {
	m.commenting = false
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) setFilter(f Filter) {
	m.filter = f
	m.currentFinding = 0
}

// jumpFile selects the first finding of the next or previous file.
func (m *Model) jumpFile(dir int) {
	files := m.fileList()
	if len(files) == 0 {
		return
	}
	idx := 0
	if f, ok := m.current(); ok {
		for i, path := range files {
			if path == f.URI() {
				idx = (i + dir + len(files)) % len(files)
				break
			}
		}
	}
	for i, f := range m.filteredFindings() {
		if f.URI() == files[idx] {
			m.currentFinding = i
			return
		}
	}
}

// save writes the review state; it is a no-op without a state path.
func (m Model) save() error {
	if m.opts.StatePath == "" {
		return nil
	}
	return SaveState(m, m.opts.StatePath)
}

// SaveErr returns the error from saving the state on quit, if any.
func (m Model) SaveErr() error {
	return m.saveErr
}
