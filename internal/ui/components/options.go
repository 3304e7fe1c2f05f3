package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/ui/theme"
)

// OptionList is a lettered option selector. In single mode the option
// under the cursor is the answer; in multi mode space toggles options.
type OptionList struct {
	Options []string
	Multi   bool
	Cursor  int
	Marked  map[int]bool

	revealed bool
	correct  map[int]bool
}

// NewOptionList creates a selector over options.
func NewOptionList(options []string, multi bool) OptionList {
	return OptionList{
		Options: options,
		Multi:   multi,
		Marked:  make(map[int]bool),
	}
}

// Update handles cursor movement, letter shortcuts and toggling.
func (o OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	if o.revealed {
		return o, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return o, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if o.Cursor > 0 {
			o.Cursor--
		}
		return o, nil
	case "down", "j":
		if o.Cursor < len(o.Options)-1 {
			o.Cursor++
		}
		return o, nil
	case "space", " ":
		if o.Multi {
			o.toggle(o.Cursor)
		}
		return o, nil
	}

	if len(key) == 1 {
		i := int(strings.ToUpper(key)[0]) - 'A'
		if i >= 0 && i < len(o.Options) {
			o.Cursor = i
			if o.Multi {
				o.toggle(i)
			}
		}
	}
	return o, nil
}

func (o *OptionList) toggle(i int) {
	if o.Marked[i] {
		delete(o.Marked, i)
	} else {
		o.Marked[i] = true
	}
}

// Selection returns the chosen option letters in option order.
func (o OptionList) Selection() []string {
	if !o.Multi {
		if o.Cursor < 0 || o.Cursor >= len(o.Options) {
			return nil
		}
		return []string{question.OptionLetter(o.Cursor)}
	}
	var out []string
	for i := range o.Options {
		if o.Marked[i] {
			out = append(out, question.OptionLetter(i))
		}
	}
	return out
}

// Reveal locks the list and highlights the correct letters.
func (o *OptionList) Reveal(correctLetters []string) {
	o.revealed = true
	o.correct = make(map[int]bool, len(correctLetters))
	for _, l := range correctLetters {
		if len(l) == 1 {
			o.correct[int(l[0])-'A'] = true
		}
	}
	if !o.Multi {
		o.Marked = map[int]bool{o.Cursor: true}
	}
}

// View renders one line per option.
func (o OptionList) View() string {
	var b strings.Builder
	for i, opt := range o.Options {
		prefix := "  "
		if i == o.Cursor && !o.revealed {
			prefix = theme.Pointer
		}
		box := ""
		if o.Multi {
			box = "[ ] "
			if o.Marked[i] {
				box = "[x] "
			}
		}
		line := fmt.Sprintf("%s%s%s)  %s", prefix, box, question.OptionLetter(i), opt)

		var style lipgloss.Style
		switch {
		case o.revealed && o.correct[i]:
			style = theme.Correct
		case o.revealed && o.Marked[i]:
			style = theme.Incorrect
		case o.revealed:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == o.Cursor:
			style = theme.Selected
		case o.Marked[i]:
			style = theme.Marked
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
