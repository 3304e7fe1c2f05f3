package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

func press(o OptionList, keys ...tea.KeyPressMsg) OptionList {
	for _, k := range keys {
		o, _ = o.Update(k)
	}
	return o
}

func letter(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestOptionListSingle(t *testing.T) {
	o := NewOptionList([]string{"one", "two", "three"}, false)

	o = press(o, tea.KeyPressMsg{Code: tea.KeyDown}, tea.KeyPressMsg{Code: tea.KeyDown})
	if got := o.Selection(); len(got) != 1 || got[0] != "C" {
		t.Errorf("Selection = %v, want [C]", got)
	}

	o = press(o, letter('a'))
	if got := o.Selection(); len(got) != 1 || got[0] != "A" {
		t.Errorf("Selection = %v, want [A]", got)
	}

	o = press(o, letter('z'))
	if got := o.Selection(); got[0] != "A" {
		t.Errorf("out-of-range letter moved cursor to %v", got)
	}
}

func TestOptionListMultiToggles(t *testing.T) {
	o := NewOptionList([]string{"one", "two", "three", "four"}, true)

	if got := o.Selection(); len(got) != 0 {
		t.Fatalf("Selection = %v, want empty", got)
	}

	o = press(o, letter('c'), letter('a'), letter('d'), letter('d'))
	got := o.Selection()
	if len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Errorf("Selection = %v, want [A C]", got)
	}
}

func TestOptionListRevealLocks(t *testing.T) {
	o := NewOptionList([]string{"one", "two"}, false)
	o.Reveal([]string{"B"})

	o = press(o, tea.KeyPressMsg{Code: tea.KeyDown})
	if got := o.Selection(); got[0] != "A" {
		t.Errorf("revealed list moved: %v", got)
	}
	if o.View() == "" {
		t.Error("expected non-empty view")
	}
}
