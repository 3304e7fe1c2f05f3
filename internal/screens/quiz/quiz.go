package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcycle/internal/cycle"
	"github.com/abhisek/quizcycle/internal/evaluator"
	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/router"
	"github.com/abhisek/quizcycle/internal/screen"
	"github.com/abhisek/quizcycle/internal/screens/summary"
	"github.com/abhisek/quizcycle/internal/session"
	"github.com/abhisek/quizcycle/internal/ui/components"
	"github.com/abhisek/quizcycle/internal/ui/layout"
	"github.com/abhisek/quizcycle/internal/ui/theme"
)

const saveNotice = "Progress not saved yet. It will be retried on your next answer."

// QuizScreen runs one drill or exam. It renders controller snapshots and
// forwards learner input to the controller.
type QuizScreen struct {
	sess *session.Session
	eval *evaluator.Evaluator

	view cycle.View

	options components.OptionList
	input   components.PartInput

	result             *evaluator.Result
	showingQuitConfirm bool
	showingFinish      bool
	notice             string
	errMsg             string
	finished           bool
}

var (
	_ screen.Screen          = (*QuizScreen)(nil)
	_ screen.KeyHintProvider = (*QuizScreen)(nil)
	_ screen.StatusProvider  = (*QuizScreen)(nil)
	_ screen.Closer          = (*QuizScreen)(nil)
)

// New creates a QuizScreen for an opened session.
func New(sess *session.Session, eval *evaluator.Evaluator) *QuizScreen {
	return &QuizScreen{
		sess:  sess,
		eval:  eval,
		input: components.NewPartInput("Type your answer...", 200),
	}
}

func (s *QuizScreen) Init() tea.Cmd {
	s.sess.Run(context.Background())
	s.refresh()
	if s.view.Phase == cycle.PhaseCompleted {
		return s.finish()
	}
	return tea.Batch(tickCmd(), s.input.Init())
}

func (s *QuizScreen) Title() string {
	return s.sess.Title
}

// Close releases the session when the screen leaves the stack.
func (s *QuizScreen) Close() {
	s.sess.Close()
}

func (s *QuizScreen) Status() string {
	var parts []string
	if rec := s.view.Record; rec != nil {
		parts = append(parts, theme.Marked.Render(fmt.Sprintf("✓ %d/%d", rec.CorrectCount, len(s.view.Questions))))
	}
	if left := s.sess.Remaining(); left >= 0 {
		style := theme.TimerNormal
		switch {
		case left <= 60:
			style = theme.TimerCritical
		case left <= 600:
			style = theme.TimerLow
		}
		parts = append(parts, style.Render("⏱ "+layout.FormatClock(left)))
	}
	return strings.Join(parts, "   ")
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.showingQuitConfirm, s.showingFinish:
		return []layout.KeyHint{
			{Key: "Y", Description: "Yes"},
			{Key: "N", Description: "No"},
		}
	case s.result != nil:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	}

	q, _ := s.view.Current()
	hints := []layout.KeyHint{}
	switch q.Type {
	case question.TypeMultiple:
		hints = append(hints, layout.KeyHint{Key: "A-Z/Space", Description: "Toggle"})
	case question.TypeComposite:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Next part"})
	default:
		hints = append(hints, layout.KeyHint{Key: "A-Z/↑↓", Description: "Choose"})
	}
	hints = append(hints,
		layout.KeyHint{Key: "Enter", Description: "Submit"},
		layout.KeyHint{Key: "Tab", Description: "Skip"},
		layout.KeyHint{Key: "Ctrl+F", Description: "Finish"},
		layout.KeyHint{Key: "Esc", Description: "Leave"},
	)
	return hints
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		return s.handleTimerTick()
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) handleTimerTick() (screen.Screen, tea.Cmd) {
	if s.finished {
		return s, nil
	}
	if s.sess.Controller.Phase() == cycle.PhaseCompleted {
		return s, s.finish()
	}
	return s, tickCmd()
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	if s.showingQuitConfirm {
		switch key {
		case "y", "Y":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.showingQuitConfirm = false
		}
		return s, nil
	}

	if s.showingFinish {
		switch key {
		case "y", "Y":
			s.showingFinish = false
			return s, s.finalize()
		case "n", "N", "esc":
			s.showingFinish = false
		}
		return s, nil
	}

	if s.result != nil {
		s.result = nil
		if pos, ok := s.view.NextUnanswered(); ok {
			return s, s.moveTo(pos)
		}
		return s, s.finalize()
	}

	switch key {
	case "esc":
		s.showingQuitConfirm = true
		return s, nil
	case "ctrl+f":
		s.showingFinish = true
		return s, nil
	case "tab":
		if pos, ok := s.view.NextUnanswered(); ok {
			return s, s.moveTo(pos)
		}
		return s, nil
	case "enter":
		return s.submit()
	}

	q, ok := s.view.Current()
	if !ok {
		return s, nil
	}
	var cmd tea.Cmd
	if q.Type == question.TypeComposite {
		s.input, cmd = s.input.Update(msg)
	} else {
		s.options, cmd = s.options.Update(msg)
	}
	return s, cmd
}

// submit sends the current answer, or for composite questions collects
// the next sub-answer until the last one is in.
func (s *QuizScreen) submit() (screen.Screen, tea.Cmd) {
	q, ok := s.view.Current()
	if !ok {
		return s, nil
	}

	var answer evaluator.Answer
	if q.Type == question.TypeComposite {
		if len(q.SubQuestions) == 0 {
			return s, nil
		}
		if !s.input.Commit() {
			return s, nil
		}
		answer = evaluator.Answer{Sub: s.input.Answers()}
	} else {
		answer = evaluator.Choice(s.options.Selection()...)
		if answer.IsEmpty() {
			return s, nil
		}
	}

	res, err := s.sess.Controller.Submit(context.Background(), s.view.Record.CurrentIndex, answer)
	if cmd, handled := s.handleControllerErr(err); handled {
		return s, cmd
	}

	s.result = &res
	if q.Type == question.TypeComposite {
		s.input.Lock()
	} else {
		correct, _ := evaluator.ParseCorrectAnswer(q.CorrectAnswer, len(q.Options))
		s.options.Reveal(correct)
	}
	s.view = s.sess.Controller.Snapshot()
	return s, nil
}

// moveTo goes to position. Skipped questions are revisited once the end
// of the order is reached.
func (s *QuizScreen) moveTo(position int) tea.Cmd {
	var err error
	if position == s.view.Record.CurrentIndex+1 {
		err = s.sess.Controller.Advance(context.Background())
	} else {
		err = s.sess.Controller.Seek(context.Background(), position)
	}
	if cmd, handled := s.handleControllerErr(err); handled {
		return cmd
	}
	s.refresh()
	return s.input.Init()
}

func (s *QuizScreen) finalize() tea.Cmd {
	err := s.sess.Controller.Finalize(context.Background())
	if cmd, handled := s.handleControllerErr(err); handled {
		return cmd
	}
	return s.finish()
}

// handleControllerErr turns controller errors into screen state. A failed
// save is shown as a notice and does not interrupt the quiz; a cycle that
// the timer already submitted goes to the summary.
func (s *QuizScreen) handleControllerErr(err error) (tea.Cmd, bool) {
	switch {
	case err == nil:
		s.notice = ""
		return nil, false
	case progress.IsTransient(err):
		s.notice = saveNotice
		return nil, false
	case errors.Is(err, cycle.ErrCompleted):
		return s.finish(), true
	case errors.Is(err, cycle.ErrNoNextQuestion):
		return nil, true
	default:
		s.errMsg = err.Error()
		return nil, true
	}
}

// finish replaces the quiz with its summary. Runs once.
func (s *QuizScreen) finish() tea.Cmd {
	if s.finished {
		return nil
	}
	s.finished = true
	v := s.sess.Controller.Snapshot()
	sum := cycle.BuildSummary(v, s.eval)
	title := s.sess.Title
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(sum, title)}
	}
}

// refresh reloads the snapshot and resets the answer widgets for the
// current question, pre-filled with any earlier answer.
func (s *QuizScreen) refresh() {
	s.view = s.sess.Controller.Snapshot()
	s.result = nil

	q, ok := s.view.Current()
	if !ok {
		return
	}
	prev, answered := s.view.Record.Answers[s.view.Record.CurrentIndex]

	if q.Type == question.TypeComposite {
		ids := make([]string, len(q.SubQuestions))
		for i, sub := range q.SubQuestions {
			ids[i] = sub.ID
		}
		s.input.Load(ids, prev.Sub)
		return
	}

	s.options = components.NewOptionList(q.Options, q.Type == question.TypeMultiple)
	if !answered {
		return
	}
	for _, sel := range prev.Selected {
		for _, l := range strings.Split(sel, ",") {
			l = strings.ToUpper(strings.TrimSpace(l))
			if len(l) != 1 {
				continue
			}
			i := int(l[0]) - 'A'
			if i < 0 || i >= len(q.Options) {
				continue
			}
			s.options.Cursor = i
			if s.options.Multi {
				s.options.Marked[i] = true
			}
		}
	}
}

func (s *QuizScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, s.errMsg)
	}
	if s.view.Record == nil {
		return renderLoading(width)
	}
	if s.showingQuitConfirm {
		return renderConfirm(width, "Leave this quiz?", "Your progress is saved. You can resume later.",
			"[Y] Yes, leave", "[N] No, keep going")
	}
	if s.showingFinish {
		unanswered := len(s.view.Questions) - s.view.Record.Answered()
		detail := "Every question is answered."
		if unanswered > 0 {
			detail = fmt.Sprintf("%d question(s) are unanswered and will count as incorrect.", unanswered)
		}
		return renderConfirm(width, "Finish now?", detail, "[Y] Yes, submit", "[N] No, keep going")
	}
	return s.renderQuestionView(width, height)
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}
