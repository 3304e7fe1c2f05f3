package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/ui/theme"
)

// MenuItem is one row of a Menu. Heading rows group the rows below them
// and are never selectable.
type MenuItem struct {
	Label    string
	Detail   string
	Action   func() tea.Cmd
	Disabled bool
	Heading  bool
}

func (it MenuItem) selectable() bool {
	return !it.Disabled && !it.Heading
}

// Menu is a vertical list with a cursor on a selectable row.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu places the cursor on the first selectable row.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.move(1)
	return m
}

// move steps the cursor to the next selectable row in direction step,
// staying put when there is none.
func (m *Menu) move(step int) {
	for i := m.Selected + step; i >= 0 && i < len(m.Items); i += step {
		if m.Items[i].selectable() {
			m.Selected = i
			return
		}
	}
}

// Update handles keyboard navigation and runs the action on enter.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "home", "g":
		m.Selected = -1
		m.move(1)
	case "end", "G":
		m.Selected = len(m.Items)
		m.move(-1)
	case "enter":
		if m.Selected < 0 || m.Selected >= len(m.Items) {
			return m, nil
		}
		if it := m.Items[m.Selected]; it.selectable() && it.Action != nil {
			return m, it.Action()
		}
	}
	return m, nil
}

// View renders one row per item.
func (m Menu) View() string {
	detail := lipgloss.NewStyle().Foreground(theme.TextDim)
	heading := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)

	var b strings.Builder
	for i, it := range m.Items {
		switch {
		case it.Heading:
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(heading.Render(strings.ToUpper(it.Label)))
		case it.Disabled:
			b.WriteString(detail.Render("  " + it.Label))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render(theme.Pointer + it.Label))
		default:
			b.WriteString(theme.Unselected.Render("  " + it.Label))
		}
		if it.Detail != "" && !it.Heading {
			b.WriteString("  " + detail.Render(it.Detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}
