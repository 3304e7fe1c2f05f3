package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcycle/internal/progress"
)

func loaderOf(entries []progress.HistoryEntry, err error) Loader {
	return func(context.Context) ([]progress.HistoryEntry, error) { return entries, err }
}

func TestHistoryScreenLoadsEntries(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New("networking", loaderOf([]progress.HistoryEntry{
		{Cycle: 2, Total: 5, Answered: 2, CorrectCount: 1, UpdatedAt: now},
		{Cycle: 1, Total: 5, Answered: 5, CorrectCount: 5, Completed: true, CompletedAt: now},
	}, nil))

	msg := s.Init()()
	s.Update(msg)

	view := s.View(120, 30)
	if !strings.Contains(view, "in progress") || !strings.Contains(view, "completed") {
		t.Errorf("expected both cycles in view, got:\n%s", view)
	}
	if !strings.Contains(view, "100%") {
		t.Error("expected accuracy of the completed cycle")
	}
}

func TestHistoryScreenError(t *testing.T) {
	s := New("networking", loaderOf(nil, errors.New("db down")))
	s.Update(s.Init()())
	if !strings.Contains(s.View(80, 24), "db down") {
		t.Error("expected error in view")
	}
}

func TestHistoryScreenEmpty(t *testing.T) {
	s := New("networking", loaderOf(nil, nil))
	s.Update(s.Init()())
	if !strings.Contains(s.View(80, 24), "No cycles yet") {
		t.Error("expected empty-state message")
	}
}

func TestHistoryScreenEscPops(t *testing.T) {
	s := New("networking", loaderOf(nil, nil))
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Error("expected a pop command on Esc")
	}
}

func TestFormatEntryUnreadable(t *testing.T) {
	got := FormatEntry(progress.HistoryEntry{Cycle: 3})
	if !strings.Contains(got, "unreadable") {
		t.Errorf("FormatEntry = %q", got)
	}
}
