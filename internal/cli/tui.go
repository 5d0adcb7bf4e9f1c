package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/uptix/pkg/deps"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PickerModel - Interactive dependency selection
// =============================================================================

// PickerModel is the bubbletea model for choosing which declared
// dependencies to update.
type PickerModel struct {
	Deps      []deps.Dependency
	Cursor    int
	Chosen    map[int]bool
	Confirmed bool
	Height    int
	Offset    int
}

// NewPickerModel creates a picker over the declared dependencies.
func NewPickerModel(declared []deps.Dependency) PickerModel {
	return PickerModel{
		Deps:   declared,
		Chosen: make(map[int]bool),
		Height: 15,
	}
}

// Selected returns the chosen dependencies in declaration order. It is
// empty unless the user confirmed.
func (m PickerModel) Selected() []deps.Dependency {
	if !m.Confirmed {
		return nil
	}
	var out []deps.Dependency
	for i, d := range m.Deps {
		if m.Chosen[i] {
			out = append(out, d)
		}
	}
	return out
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Deps)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Deps) > 0 {
				m.Chosen[m.Cursor] = !m.Chosen[m.Cursor]
			}
		case "a":
			all := countTrue(m.Chosen) < len(m.Deps)
			for i := range m.Deps {
				m.Chosen[i] = all
			}
		case "enter":
			if countTrue(m.Chosen) == 0 && len(m.Deps) > 0 {
				m.Chosen[m.Cursor] = true
			}
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 7
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m PickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Dependencies"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ update  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Deps) {
		end = len(m.Deps)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Deps[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := "[ ]"
		if m.Chosen[i] {
			mark = "[x]"
		}
		rows = append(rows, []string{cursor + mark, d.Key(), d.Type()})
	}

	t := newTable(func(row, col int) lipgloss.Style {
		idx := m.Offset + row
		switch {
		case idx == m.Cursor:
			return listSelectedStyle
		case m.Chosen[idx]:
			return listNormalStyle.Foreground(colorGreen)
		case col == 2:
			return listDimStyle
		default:
			return listNormalStyle
		}
	}, "", "Dependency", "Type").Rows(rows...)

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d selected", m.Cursor+1, len(m.Deps), countTrue(m.Chosen))))

	return b.String()
}

func countTrue(set map[int]bool) int {
	n := 0
	for _, v := range set {
		if v {
			n++
		}
	}
	return n
}

// pickDependencies runs the picker on the terminal and returns the chosen
// dependencies.
func pickDependencies(in io.Reader, out io.Writer, declared []deps.Dependency) ([]deps.Dependency, error) {
	p := tea.NewProgram(NewPickerModel(declared), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(PickerModel).Selected(), nil
}
