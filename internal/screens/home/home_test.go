package home

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/registry"
	"github.com/abhisek/quizcycle/internal/router"
	"github.com/abhisek/quizcycle/internal/session"
	"github.com/abhisek/quizcycle/internal/store/storetest"
)

func newHome() *HomeScreen {
	bank := question.NewBank([]question.Question{
		{ID: "s1", QuizType: "single", Category: "net", Type: question.TypeSingle, Text: "Q", Options: []string{"a", "b"}, CorrectAnswer: "A"},
	}, question.Exam{ID: "mock-1", QuizType: "single", QuestionIDs: []string{"s1"}, TimerEnabled: true})
	repo := storetest.New()
	l := session.NewLauncher(bank, progress.NewAdapter(repo), repo, registry.New(repo))
	return New(l, "u1")
}

func TestHomeListsDrillsAndExams(t *testing.T) {
	h := newHome()
	view := h.View(100, 40)
	for _, want := range []string{"Resume last session", "single / net", "mock-1", "Quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("home view missing %q", want)
		}
	}
}

func TestHomeResumeWithNothingOpen(t *testing.T) {
	h := newHome()
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected open command")
	}
	h.Update(cmd())
	if !strings.Contains(h.View(100, 40), "Nothing to resume yet.") {
		t.Error("expected nothing-to-resume message")
	}
}

func TestHomeOpensDrill(t *testing.T) {
	h := newHome()
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected open command")
	}
	_, cmd = h.Update(cmd())
	if cmd == nil {
		t.Fatal("expected push command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if push.Screen.Title() != "Drill: net" {
		t.Errorf("pushed %q", push.Screen.Title())
	}
	if c, ok := push.Screen.(interface{ Close() }); ok {
		c.Close()
	}
}

func TestHomeHistoryOnlyForDrills(t *testing.T) {
	h := newHome()
	if _, cmd := h.Update(tea.KeyPressMsg{Code: 'h', Text: "h"}); cmd != nil {
		t.Error("history should not open for the resume item")
	}

	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := h.Update(tea.KeyPressMsg{Code: 'h', Text: "h"})
	if cmd == nil {
		t.Fatal("expected history push")
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Error("expected PushScreenMsg")
	}
}
