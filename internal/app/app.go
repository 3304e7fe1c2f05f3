package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/quizcycle/internal/router"
	"github.com/abhisek/quizcycle/internal/screen"
	"github.com/abhisek/quizcycle/internal/screens/home"
	"github.com/abhisek/quizcycle/internal/session"
	"github.com/abhisek/quizcycle/internal/ui/layout"
)

// Options configures the terminal front-end.
type Options struct {
	Launcher  *session.Launcher
	LearnerID string

	// Initial, when set, opens on top of the home screen, e.g. a quiz
	// started from the command line.
	Initial screen.Screen

	Logger *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	m := AppModel{
		router: router.New(home.New(opts.Launcher, opts.LearnerID)),
	}
	if opts.Initial != nil {
		m.router.Push(opts.Initial)
	}
	return m
}

func (m AppModel) Init() tea.Cmd {
	if m.router.Depth() > 1 {
		return m.router.Active().Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.frame())
	return v
}

// frame renders the active screen inside the header and footer bars.
func (m AppModel) frame() string {
	var chrome layout.Chrome
	if active := m.router.Active(); active != nil {
		chrome.Title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			chrome.Status = sp.Status()
		}
		if kp, ok := active.(screen.KeyHintProvider); ok {
			chrome.Hints = kp.KeyHints()
		}
	}
	return chrome.Render(m.width, m.height, m.router.View)
}

// Run starts the Bubble Tea program and blocks until it exits. Open
// sessions are closed on the way out.
func Run(ctx context.Context, opts Options) error {
	if opts.Launcher == nil {
		return fmt.Errorf("run app: no launcher")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := newAppModel(opts)
	defer m.router.CloseAll()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", zap.Error(err))
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}
