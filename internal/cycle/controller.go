// Package cycle drives one learner through one pass over a question set:
// resume or start a cycle, record answers, advance, and finalize.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/quizcycle/internal/evaluator"
	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/store"
)

var (
	ErrNoQuestions        = errors.New("no questions available")
	ErrNoNextQuestion     = errors.New("no next question")
	ErrCompleted          = errors.New("cycle already completed")
	ErrNotStarted         = errors.New("cycle not started")
	ErrPositionOutOfRange = errors.New("position out of range")
)

// Config selects what the controller runs. Drills set Scope to the
// category; exams set Scope to the exam id and SessionID to the session.
type Config struct {
	LearnerID string
	QuizType  string
	Scope     string
	SessionID string
	Timed     bool

	// NoRollover loads a completed cycle for review instead of starting
	// the next one. Exam sessions are single-attempt.
	NoRollover bool
}

// Key returns the progress store key for the configuration.
func (c Config) Key() store.ProgressKey {
	scope := c.Scope
	if c.SessionID != "" {
		scope = c.SessionID
	}
	return store.ProgressKey{LearnerID: c.LearnerID, QuizType: c.QuizType, Scope: scope}
}

// Controller owns the state of one cycle. All methods are safe for
// concurrent use; the exam timer and the learner race through Finalize.
type Controller struct {
	cfg      Config
	adapter  *progress.Adapter
	attempts store.AttemptRepo
	eval     *evaluator.Evaluator
	logger   *zap.Logger
	now      func() time.Time
	shuffle  func([]string) []string

	mu        sync.Mutex
	phase     Phase
	rec       *progress.Record
	questions []question.Question
	pending   bool
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithEvaluator(e *evaluator.Evaluator) Option {
	return func(c *Controller) { c.eval = e }
}

// WithAttemptLog records every submitted answer in repo.
func WithAttemptLog(repo store.AttemptRepo) Option {
	return func(c *Controller) { c.attempts = repo }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithShuffle replaces the order generator.
func WithShuffle(fn func([]string) []string) Option {
	return func(c *Controller) { c.shuffle = fn }
}

func New(cfg Config, adapter *progress.Adapter, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		adapter: adapter,
		now:     time.Now,
		shuffle: Shuffle[string],
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.eval == nil {
		c.eval = evaluator.New(c.logger)
	}
	c.logger = c.logger.With(
		zap.String("learner_id", cfg.LearnerID),
		zap.String("quiz_type", cfg.QuizType),
		zap.String("scope", cfg.Key().Scope),
	)
	return c
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Start loads the active cycle or begins a new one over questions.
//
// An incomplete stored cycle is resumed: its order is kept, ids missing
// from questions are dropped and stored positions remapped. Otherwise
// cycle latest+1 (or 1) is created with a fresh shuffle and persisted.
//
// A *progress.StoreError from the initial insert leaves the controller
// running; the write is retried on the next mutation.
func (c *Controller) Start(ctx context.Context, questions []question.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.phase
	c.phase = PhaseLoading

	if len(questions) == 0 {
		c.phase = prev
		return ErrNoQuestions
	}

	latest, lastCycle, err := c.adapter.Latest(ctx, c.cfg.Key())
	if err != nil {
		c.phase = prev
		return err
	}

	if latest != nil && (!latest.Completed || c.cfg.NoRollover) {
		if err := c.resume(latest, questions); err != nil {
			c.phase = prev
			return err
		}
		if latest.Completed {
			c.phase = PhaseCompleted
		} else {
			c.phase = PhaseInProgress
		}
		c.logger.Info("resumed cycle",
			zap.Int("cycle", latest.Cycle),
			zap.Int("current_index", latest.CurrentIndex),
			zap.Int("answered", latest.Answered()),
		)
		return nil
	}

	order := c.shuffle(question.IDs(questions))
	byID := indexByID(questions)
	c.questions = make([]question.Question, len(order))
	for i, id := range order {
		c.questions[i] = byID[id]
	}
	c.rec = progress.NewRecord(c.cfg.Key(), c.cfg.Scope, lastCycle+1, order, c.now().UTC())
	c.phase = PhaseInProgress
	c.logger.Info("started cycle", zap.Int("cycle", c.rec.Cycle), zap.Int("questions", len(order)))

	return c.persist(ctx, c.adapter.Create)
}

// resume rebuilds the working list from rec's stored order.
func (c *Controller) resume(rec *progress.Record, questions []question.Question) error {
	byID := indexByID(questions)

	remap := make(map[int]int, len(rec.QuestionOrder))
	var (
		order   []string
		working []question.Question
		dropped []string
	)
	for oldPos, id := range rec.QuestionOrder {
		q, ok := byID[id]
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		remap[oldPos] = len(order)
		order = append(order, id)
		working = append(working, q)
	}
	if len(order) == 0 {
		return ErrNoQuestions
	}

	if len(dropped) > 0 {
		c.logger.Warn("dropping stored questions missing from the bank",
			zap.Int("cycle", rec.Cycle),
			zap.Strings("question_ids", dropped),
		)
		rec = remapRecord(rec, order, remap)
	}

	c.rec = rec
	c.questions = working
	c.pending = false
	return nil
}

// remapRecord moves answers and verdicts to their positions in the
// shortened order. The current index moves to the next kept position, or
// the last one.
func remapRecord(rec *progress.Record, order []string, remap map[int]int) *progress.Record {
	out := rec.Clone()
	out.QuestionOrder = order
	out.Answers = make(map[int]evaluator.Answer, len(rec.Answers))
	out.Correct = make(progress.PositionSet, len(rec.Correct))
	out.Incorrect = make(progress.PositionSet, len(rec.Incorrect))

	for oldPos, a := range rec.Answers {
		if p, ok := remap[oldPos]; ok {
			out.Answers[p] = a
		}
	}
	for oldPos := range rec.Correct {
		if p, ok := remap[oldPos]; ok {
			out.Correct[p] = struct{}{}
		}
	}
	for oldPos := range rec.Incorrect {
		if p, ok := remap[oldPos]; ok {
			out.Incorrect[p] = struct{}{}
		}
	}
	out.CorrectCount = len(out.Correct)

	out.CurrentIndex = len(order) - 1
	for oldPos := rec.CurrentIndex; oldPos < len(rec.QuestionOrder); oldPos++ {
		if p, ok := remap[oldPos]; ok {
			out.CurrentIndex = p
			break
		}
	}
	return out
}

// RecordAnswer stores a verdict for position, replacing any earlier one.
func (c *Controller) RecordAnswer(ctx context.Context, position int, answer evaluator.Answer, correct bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable(position); err != nil {
		return err
	}
	c.setVerdict(position, answer, correct)
	return c.persist(ctx, c.adapter.Save)
}

// Submit evaluates answer against the question at position and records
// the verdict. The returned Result is valid even when the error is a
// *progress.StoreError.
func (c *Controller) Submit(ctx context.Context, position int, answer evaluator.Answer) (evaluator.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable(position); err != nil {
		return evaluator.Result{}, err
	}

	q := c.questions[position]
	res := c.eval.Evaluate(q, answer)
	c.setVerdict(position, answer, res.Correct)

	err := c.persist(ctx, c.adapter.Save)
	c.logAttempt(ctx, q, answer, res)
	return res, err
}

func (c *Controller) setVerdict(position int, answer evaluator.Answer, correct bool) {
	c.rec.SetVerdict(position, answer, correct)
	c.rec.UpdatedAt = c.now().UTC()
}

// logAttempt writes the parent entry and one entry per sub-question.
func (c *Controller) logAttempt(ctx context.Context, q question.Question, answer evaluator.Answer, res evaluator.Result) {
	if c.attempts == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	base := store.AttemptEventData{
		LearnerID: c.cfg.LearnerID,
		QuizType:  c.cfg.QuizType,
		Category:  q.Category,
		Cycle:     c.rec.Cycle,
	}

	parent := base
	parent.QuestionID = q.ID
	parent.Correct = res.Correct
	parent.SubmittedAnswer = strings.Join(answer.Selected, ",")
	entries := []store.AttemptEventData{parent}

	for _, sr := range res.SubResults {
		e := base
		e.QuestionID = q.ID
		e.SubQuestionID = sr.SubQuestionID
		e.Correct = sr.Correct
		e.SubmittedAnswer = sr.Given
		entries = append(entries, e)
	}

	for _, e := range entries {
		if err := c.attempts.RecordAttempt(ctx, e); err != nil {
			c.logger.Warn("record attempt",
				zap.String("question_id", e.QuestionID),
				zap.String("sub_question_id", e.SubQuestionID),
				zap.Error(err),
			)
		}
	}
}

// Advance moves to the next position.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkPhase(); err != nil {
		return err
	}
	if c.rec.CurrentIndex >= len(c.rec.QuestionOrder)-1 {
		return ErrNoNextQuestion
	}
	c.rec.CurrentIndex++
	c.rec.UpdatedAt = c.now().UTC()
	return c.persist(ctx, c.adapter.Save)
}

// Seek moves to the given position.
func (c *Controller) Seek(ctx context.Context, position int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable(position); err != nil {
		return err
	}
	c.rec.CurrentIndex = position
	c.rec.UpdatedAt = c.now().UTC()
	return c.persist(ctx, c.adapter.Save)
}

// Finalize completes the cycle. Calling it again is a no-op apart from
// retrying a write that previously failed.
func (c *Controller) Finalize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseCompleted:
		if c.pending {
			return c.persist(ctx, c.adapter.Save)
		}
		return nil
	case PhaseInProgress:
	default:
		return ErrNotStarted
	}

	now := c.now().UTC()
	c.rec.Completed = true
	c.rec.CompletedAt = now
	c.rec.UpdatedAt = now
	c.phase = PhaseCompleted
	c.logger.Info("completed cycle",
		zap.Int("cycle", c.rec.Cycle),
		zap.Int("correct", c.rec.CorrectCount),
		zap.Int("answered", c.rec.Answered()),
		zap.Int("total", len(c.rec.QuestionOrder)),
	)
	return c.persist(ctx, c.adapter.Save)
}

func (c *Controller) checkPhase() error {
	switch c.phase {
	case PhaseInProgress:
		return nil
	case PhaseCompleted:
		return ErrCompleted
	default:
		return ErrNotStarted
	}
}

func (c *Controller) checkMutable(position int) error {
	if err := c.checkPhase(); err != nil {
		return err
	}
	if position < 0 || position >= len(c.questions) {
		return fmt.Errorf("%w: %d of %d", ErrPositionOutOfRange, position, len(c.questions))
	}
	return nil
}

// persist writes the full in-memory record. The write is detached from
// the caller's cancellation. A failure marks the record pending so the
// next mutation rewrites it.
func (c *Controller) persist(ctx context.Context, write func(context.Context, *progress.Record) error) error {
	if c.pending {
		write = c.adapter.Save
	}
	if err := write(context.WithoutCancel(ctx), c.rec); err != nil {
		c.pending = true
		c.logger.Warn("persist progress", zap.Int("cycle", c.rec.Cycle), zap.Error(err))
		return err
	}
	c.pending = false
	return nil
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// View is a point-in-time copy of the controller state.
type View struct {
	Config    Config
	Phase     Phase
	Record    *progress.Record
	Questions []question.Question
	Pending   bool
}

// Current returns the question at the current index.
func (v View) Current() (question.Question, bool) {
	if v.Record == nil || v.Record.CurrentIndex >= len(v.Questions) {
		return question.Question{}, false
	}
	return v.Questions[v.Record.CurrentIndex], true
}

// NextUnanswered returns the first unanswered position after the current
// one, wrapping around to the start. The current position is never
// returned.
func (v View) NextUnanswered() (int, bool) {
	if v.Record == nil {
		return 0, false
	}
	n := len(v.Questions)
	for step := 1; step < n; step++ {
		pos := (v.Record.CurrentIndex + step) % n
		if _, ok := v.Record.Answers[pos]; !ok {
			return pos, true
		}
	}
	return 0, false
}

// Snapshot returns a deep copy of the state for observers.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Config:    c.cfg,
		Phase:     c.phase,
		Questions: append([]question.Question(nil), c.questions...),
		Pending:   c.pending,
	}
	if c.rec != nil {
		v.Record = c.rec.Clone()
	}
	return v
}

func indexByID(qs []question.Question) map[string]question.Question {
	m := make(map[string]question.Question, len(qs))
	for _, q := range qs {
		m[q.ID] = q
	}
	return m
}
