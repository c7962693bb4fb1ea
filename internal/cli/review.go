package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/modlink/pkg/manifest"
	"github.com/matzehuels/modlink/pkg/normalize"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	diffAddStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	diffDelStyle      = lipgloss.NewStyle().Foreground(colorRed)
)

// changeListModel is the bubbletea model for reviewing pending reference
// changes from a dry run. The selected manifest's before/after reference
// lists are shown as a diff below the list.
type changeListModel struct {
	changes []normalize.Change
	cursor  int
	height  int
	offset  int
}

// newChangeListModel creates a review model over the pending changes.
func newChangeListModel(changes []normalize.Change) changeListModel {
	return changeListModel{changes: changes, height: 10}
}

func (m changeListModel) Init() tea.Cmd {
	return nil
}

func (m changeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.changes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height / 3
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m changeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pending reference changes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.changes) {
		end = len(m.changes)
	}

	for i := m.offset; i < end; i++ {
		ch := m.changes[i]
		line := fmt.Sprintf("%s  %d → %d references",
			manifest.ModuleName(ch.Path), len(ch.Before), len(ch.After))
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderDiff(m.changes[m.cursor]))
	return b.String()
}

// renderDiff shows the selected change as removed/added reference lines.
func renderDiff(ch normalize.Change) string {
	before := make(map[manifest.Ref]bool, len(ch.Before))
	for _, r := range ch.Before {
		before[r] = true
	}
	after := make(map[manifest.Ref]bool, len(ch.After))
	for _, r := range ch.After {
		after[r] = true
	}

	var b strings.Builder
	b.WriteString(listDimStyle.Render(ch.Path))
	b.WriteString("\n")
	for _, r := range ch.Before {
		if !after[r] {
			b.WriteString(diffDelStyle.Render("  - " + string(r)))
			b.WriteString("\n")
		}
	}
	for _, r := range ch.After {
		if !before[r] {
			b.WriteString(diffAddStyle.Render("  + " + string(r)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// runReview runs the interactive change review.
func runReview(changes []normalize.Change) error {
	_, err := tea.NewProgram(newChangeListModel(changes)).Run()
	return err
}
