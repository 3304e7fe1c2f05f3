package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/quizcycle/internal/cycle"
	"github.com/abhisek/quizcycle/internal/evaluator"
	"github.com/abhisek/quizcycle/internal/examtimer"
	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/registry"
	"github.com/abhisek/quizcycle/internal/store"
)

var (
	// ErrNothingToResume is returned by Resume when the learner has no
	// session pointer.
	ErrNothingToResume = errors.New("nothing to resume")

	ErrForeignSession = errors.New("exam session belongs to another learner")
	ErrBadPointer     = errors.New("unrecognized session pointer")
)

// Backend is the part of the store the launcher writes to directly.
type Backend interface {
	store.AttemptRepo
	store.ExamSessionRepo
}

// Launcher builds sessions over one question catalog.
type Launcher struct {
	catalog  question.Catalog
	adapter  *progress.Adapter
	backend  Backend
	registry *registry.Registry

	eval         *evaluator.Evaluator
	logger       *zap.Logger
	now          func() time.Time
	examDuration time.Duration
	timerEnabled bool
	tickSource   examtimer.TickSource
	shuffle      func([]string) []string
}

// Option configures a Launcher.
type Option func(*Launcher)

func WithLogger(l *zap.Logger) Option {
	return func(ln *Launcher) { ln.logger = l }
}

func WithEvaluator(e *evaluator.Evaluator) Option {
	return func(ln *Launcher) { ln.eval = e }
}

func WithClock(now func() time.Time) Option {
	return func(ln *Launcher) { ln.now = now }
}

// WithExamDuration sets the mock exam length.
func WithExamDuration(d time.Duration) Option {
	return func(ln *Launcher) { ln.examDuration = d }
}

// WithTimerEnabled switches the countdown off for every exam when false.
func WithTimerEnabled(enabled bool) Option {
	return func(ln *Launcher) { ln.timerEnabled = enabled }
}

// WithTickSource replaces the countdown's one-second ticker.
func WithTickSource(src examtimer.TickSource) Option {
	return func(ln *Launcher) { ln.tickSource = src }
}

// WithShuffle replaces the order generator of new cycles.
func WithShuffle(fn func([]string) []string) Option {
	return func(ln *Launcher) { ln.shuffle = fn }
}

func NewLauncher(catalog question.Catalog, adapter *progress.Adapter, backend Backend, reg *registry.Registry, opts ...Option) *Launcher {
	l := &Launcher{
		catalog:      catalog,
		adapter:      adapter,
		backend:      backend,
		registry:     reg,
		logger:       zap.NewNop(),
		now:          time.Now,
		examDuration: examtimer.DefaultDuration,
		timerEnabled: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.eval == nil {
		l.eval = evaluator.New(l.logger)
	}
	return l
}

// Catalog returns the question catalog sessions are drawn from.
func (l *Launcher) Catalog() question.Catalog {
	return l.catalog
}

// Evaluator returns the evaluator shared by every session.
func (l *Launcher) Evaluator() *evaluator.Evaluator {
	return l.eval
}

// History lists the stored cycles of a drill.
func (l *Launcher) History(ctx context.Context, learnerID, quizType, category string) ([]progress.HistoryEntry, error) {
	return l.adapter.History(ctx, store.ProgressKey{LearnerID: learnerID, QuizType: quizType, Scope: category})
}

// Drill opens the active cycle of a category, or starts the next one.
func (l *Launcher) Drill(ctx context.Context, learnerID, quizType, category string) (*Session, error) {
	qs, err := l.catalog.ByCategory(ctx, quizType, category)
	if err == nil {
		err = l.fillSubQuestions(ctx, qs)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	ctrl := l.controller(cycle.Config{
		LearnerID: learnerID,
		QuizType:  quizType,
		Scope:     category,
	})
	if err := l.start(ctx, ctrl, qs); err != nil {
		return nil, fmt.Errorf("start drill %s/%s: %w", quizType, category, err)
	}

	s := l.newSession(learnerID, DrillTag(quizType, category), "", fmt.Sprintf("Drill: %s", category), ctrl)
	l.touch(ctx, s)
	return s, nil
}

// Exam opens a mock exam. An empty sessionID starts a new exam session;
// otherwise the stored session is resumed, or shown for review once
// submitted. A deadline that passed while away submits on Run.
func (l *Launcher) Exam(ctx context.Context, learnerID, examID, sessionID string) (*Session, error) {
	exam, err := l.catalog.Exam(examID)
	if err != nil {
		return nil, err
	}

	es, err := l.examSession(ctx, learnerID, exam, sessionID)
	if err != nil {
		return nil, err
	}

	qs, err := l.catalog.ByIDs(ctx, es.QuestionIDs)
	if err == nil {
		err = l.fillSubQuestions(ctx, qs)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	ctrl := l.controller(cycle.Config{
		LearnerID:  learnerID,
		QuizType:   exam.QuizType,
		Scope:      exam.ID,
		SessionID:  es.ID,
		Timed:      es.TimerEnabled,
		NoRollover: true,
	})
	if err := l.start(ctx, ctrl, qs); err != nil {
		return nil, fmt.Errorf("start exam %s: %w", exam.ID, err)
	}

	s := l.newSession(learnerID, ExamTag(exam.ID), es.ID, fmt.Sprintf("Exam: %s", exam.ID), ctrl)
	if es.TimerEnabled && ctrl.Phase() == cycle.PhaseInProgress {
		remaining := examtimer.Remaining(es.StartTime, l.examDuration, l.now())
		opts := []examtimer.Option{examtimer.WithOnTick(s.onTick)}
		if l.tickSource != nil {
			opts = append(opts, examtimer.WithTickSource(l.tickSource))
		}
		s.Timer = examtimer.New(remaining, opts...)
		l.logger.Info("exam timer armed",
			zap.String("session_id", es.ID),
			zap.Int("remaining_seconds", remaining),
		)
	}
	l.touch(ctx, s)
	return s, nil
}

// Resume reopens the learner's most recently touched session.
func (l *Launcher) Resume(ctx context.Context, learnerID string) (*Session, error) {
	p, err := l.registry.Last(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNothingToResume
	}

	kind, a, b, ok := parseTag(p.OpenSession)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadPointer, p.OpenSession)
	}
	if kind == kindExam {
		return l.Exam(ctx, learnerID, a, p.SessionID)
	}
	return l.Drill(ctx, learnerID, a, b)
}

func (l *Launcher) examSession(ctx context.Context, learnerID string, exam question.Exam, sessionID string) (*store.ExamSession, error) {
	if sessionID != "" {
		es, err := l.backend.GetExamSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load exam session %s: %w", sessionID, err)
		}
		if es.LearnerID != learnerID {
			return nil, ErrForeignSession
		}
		return es, nil
	}

	es := &store.ExamSession{
		ID:           uuid.NewString(),
		LearnerID:    learnerID,
		QuizType:     exam.QuizType,
		StartTime:    l.now().UTC(),
		QuestionIDs:  exam.QuestionIDs,
		TimerEnabled: exam.TimerEnabled && l.timerEnabled,
	}
	if err := l.backend.CreateExamSession(ctx, es); err != nil {
		return nil, fmt.Errorf("create exam session: %w", err)
	}
	l.logger.Info("created exam session",
		zap.String("exam_id", exam.ID),
		zap.String("session_id", es.ID),
		zap.Bool("timer_enabled", es.TimerEnabled),
	)
	return es, nil
}

// fillSubQuestions loads the parts of composite questions the catalog
// returned without them.
func (l *Launcher) fillSubQuestions(ctx context.Context, qs []question.Question) error {
	for i := range qs {
		if qs[i].Type != question.TypeComposite || len(qs[i].SubQuestions) > 0 {
			continue
		}
		subs, err := l.catalog.SubQuestions(ctx, qs[i].ID)
		if err != nil {
			return fmt.Errorf("sub-questions of %s: %w", qs[i].ID, err)
		}
		qs[i].SubQuestions = subs
	}
	return nil
}

func (l *Launcher) controller(cfg cycle.Config) *cycle.Controller {
	opts := []cycle.Option{
		cycle.WithLogger(l.logger),
		cycle.WithEvaluator(l.eval),
		cycle.WithAttemptLog(l.backend),
		cycle.WithClock(l.now),
	}
	if l.shuffle != nil {
		opts = append(opts, cycle.WithShuffle(l.shuffle))
	}
	return cycle.New(cfg, l.adapter, opts...)
}

// start runs Start and tolerates a failed first save: the controller is
// running and retries the write on the next mutation.
func (l *Launcher) start(ctx context.Context, ctrl *cycle.Controller, qs []question.Question) error {
	err := ctrl.Start(ctx, qs)
	if err != nil && progress.IsTransient(err) && ctrl.Phase() != cycle.PhaseUninitialized {
		return nil
	}
	return err
}

func (l *Launcher) newSession(learnerID, tag, sessionID, title string, ctrl *cycle.Controller) *Session {
	return &Session{
		LearnerID:  learnerID,
		Tag:        tag,
		SessionID:  sessionID,
		Title:      title,
		Controller: ctrl,
		registry:   l.registry,
		logger:     l.logger.With(zap.String("session", tag)),
	}
}

func (l *Launcher) touch(ctx context.Context, s *Session) {
	if l.registry == nil {
		return
	}
	if err := l.registry.Touch(ctx, s.LearnerID, s.Tag, s.SessionID); err != nil {
		l.logger.Warn("touch session", zap.String("session", s.Tag), zap.Error(err))
	}
}
