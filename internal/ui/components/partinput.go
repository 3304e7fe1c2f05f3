package components

import (
	"maps"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// PartInput collects free-text answers for the parts of a composite
// question, one part at a time.
type PartInput struct {
	model   textinput.Model
	parts   []string
	index   int
	answers map[string]string
	locked  bool
}

// NewPartInput returns an empty input; Load gives it parts.
func NewPartInput(placeholder string, charLimit int) PartInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return PartInput{model: ti, answers: make(map[string]string)}
}

// Load starts over on parts, keyed by part id. Earlier answers in prefill
// are offered again for editing.
func (p *PartInput) Load(parts []string, prefill map[string]string) tea.Cmd {
	p.parts = parts
	p.index = 0
	p.locked = false
	p.answers = make(map[string]string, len(parts))
	maps.Copy(p.answers, prefill)
	p.showCurrent()
	return p.model.Focus()
}

func (p *PartInput) showCurrent() {
	p.model.Reset()
	if p.index < len(p.parts) {
		p.model.SetValue(p.answers[p.parts[p.index]])
	}
}

func (p PartInput) Init() tea.Cmd {
	return p.model.Focus()
}

// Update forwards key input to the active part until the answer is locked.
func (p PartInput) Update(msg tea.Msg) (PartInput, tea.Cmd) {
	if p.locked {
		return p, nil
	}
	var cmd tea.Cmd
	p.model, cmd = p.model.Update(msg)
	return p, cmd
}

// Commit stores the active part's text and moves to the next part. It
// reports whether every part now has an answer recorded.
func (p *PartInput) Commit() bool {
	if p.index >= len(p.parts) {
		return true
	}
	p.answers[p.parts[p.index]] = strings.TrimSpace(p.model.Value())
	if p.index == len(p.parts)-1 {
		return true
	}
	p.index++
	p.showCurrent()
	return false
}

// Lock freezes the input once the answer has been graded.
func (p *PartInput) Lock() {
	p.locked = true
	p.model.Blur()
}

// Index is the position of the active part.
func (p PartInput) Index() int {
	return p.index
}

// Answer returns what was recorded for part id.
func (p PartInput) Answer(id string) string {
	return p.answers[id]
}

// Answers returns a copy of every recorded part answer.
func (p PartInput) Answers() map[string]string {
	return maps.Clone(p.answers)
}

func (p PartInput) View() string {
	return p.model.View()
}
