package cycle

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizcycle/internal/evaluator"
	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/store"
	"github.com/abhisek/quizcycle/internal/store/storetest"
)

var drill = Config{LearnerID: "u1", QuizType: "single", Scope: "networking"}

func singleQuestions(n int, correct string) []question.Question {
	qs := make([]question.Question, n)
	for i := range qs {
		qs[i] = question.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			QuizType:      "single",
			Category:      "networking",
			Type:          question.TypeSingle,
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"w", "x", "y", "z"},
			CorrectAnswer: correct,
		}
	}
	return qs
}

func identity(ids []string) []string { return slices.Clone(ids) }

func reverse(ids []string) []string {
	out := slices.Clone(ids)
	slices.Reverse(out)
	return out
}

type fixture struct {
	repo    *storetest.Memory
	adapter *progress.Adapter
}

func newFixture() *fixture {
	repo := storetest.New()
	return &fixture{repo: repo, adapter: progress.NewAdapter(repo)}
}

func (f *fixture) controller(cfg Config, opts ...Option) *Controller {
	opts = append([]Option{WithShuffle(identity), WithAttemptLog(f.repo)}, opts...)
	return New(cfg, f.adapter, opts...)
}

func TestEndToEndAllCorrect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.controller(drill)

	require.NoError(t, c.Start(ctx, singleQuestions(5, "C")))
	assert.Equal(t, PhaseInProgress, c.Phase())

	for pos := 0; pos < 5; pos++ {
		res, err := c.Submit(ctx, pos, evaluator.Choice("C"))
		require.NoError(t, err)
		assert.True(t, res.Correct)
		if pos < 4 {
			require.NoError(t, c.Advance(ctx))
		}
	}
	require.NoError(t, c.Finalize(ctx))

	v := c.Snapshot()
	assert.Equal(t, PhaseCompleted, v.Phase)
	assert.Equal(t, 5, v.Record.CorrectCount)
	assert.True(t, v.Record.Completed)
	assert.False(t, v.Record.CompletedAt.IsZero())

	stored, _, err := f.adapter.Latest(ctx, drill.Key())
	require.NoError(t, err)
	assert.Equal(t, 5, stored.CorrectCount)
	assert.True(t, stored.Completed)

	attempts, err := f.repo.Attempts(ctx, "u1", "single", "networking")
	require.NoError(t, err)
	assert.Len(t, attempts, 5)
}

func TestStartWithoutQuestions(t *testing.T) {
	c := newFixture().controller(drill)
	assert.ErrorIs(t, c.Start(context.Background(), nil), ErrNoQuestions)
	assert.Equal(t, PhaseUninitialized, c.Phase())
	assert.ErrorIs(t, c.Advance(context.Background()), ErrNotStarted)
}

func TestRecordAnswerIsIdempotentPerPosition(t *testing.T) {
	ctx := context.Background()
	c := newFixture().controller(drill)
	require.NoError(t, c.Start(ctx, singleQuestions(3, "A")))

	require.NoError(t, c.RecordAnswer(ctx, 1, evaluator.Choice("A"), true))
	require.NoError(t, c.RecordAnswer(ctx, 1, evaluator.Choice("A"), true))
	assert.Equal(t, 1, c.Snapshot().Record.CorrectCount)

	require.NoError(t, c.RecordAnswer(ctx, 1, evaluator.Choice("B"), false))
	v := c.Snapshot()
	assert.Equal(t, 0, v.Record.CorrectCount)
	assert.True(t, v.Record.Incorrect.Has(1))

	assert.ErrorIs(t, c.RecordAnswer(ctx, 3, evaluator.Choice("A"), true), ErrPositionOutOfRange)
	assert.ErrorIs(t, c.RecordAnswer(ctx, -1, evaluator.Choice("A"), true), ErrPositionOutOfRange)
}

func TestAdvanceStopsAtLastQuestion(t *testing.T) {
	ctx := context.Background()
	c := newFixture().controller(drill)
	require.NoError(t, c.Start(ctx, singleQuestions(2, "A")))

	require.NoError(t, c.Advance(ctx))
	assert.ErrorIs(t, c.Advance(ctx), ErrNoNextQuestion)
	assert.Equal(t, 1, c.Snapshot().Record.CurrentIndex)
}

func TestSeekAndNextUnanswered(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.controller(drill)
	require.NoError(t, c.Start(ctx, singleQuestions(4, "A")))

	_, err := c.Submit(ctx, 0, evaluator.Choice("A"))
	require.NoError(t, err)
	require.NoError(t, c.Seek(ctx, 3))
	_, err = c.Submit(ctx, 3, evaluator.Choice("B"))
	require.NoError(t, err)

	pos, ok := c.Snapshot().NextUnanswered()
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	require.NoError(t, c.Seek(ctx, pos))
	stored, _, err := f.adapter.Latest(ctx, drill.Key())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentIndex)

	assert.ErrorIs(t, c.Seek(ctx, 4), ErrPositionOutOfRange)
	assert.ErrorIs(t, c.Seek(ctx, -1), ErrPositionOutOfRange)

	for _, p := range []int{1, 2} {
		_, err := c.Submit(ctx, p, evaluator.Choice("A"))
		require.NoError(t, err)
	}
	_, ok = c.Snapshot().NextUnanswered()
	assert.False(t, ok)

	require.NoError(t, c.Finalize(ctx))
	assert.ErrorIs(t, c.Seek(ctx, 0), ErrCompleted)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.controller(drill)
	require.NoError(t, c.Start(ctx, singleQuestions(3, "A")))
	require.NoError(t, c.RecordAnswer(ctx, 0, evaluator.Choice("A"), true))

	require.NoError(t, c.Finalize(ctx))
	once := c.Snapshot().Record
	updates := f.repo.Calls["UpdateProgress"]

	require.NoError(t, c.Finalize(ctx))
	twice := c.Snapshot().Record

	assert.Equal(t, once.CorrectCount, twice.CorrectCount)
	assert.True(t, twice.Completed)
	assert.Equal(t, once.CompletedAt, twice.CompletedAt)
	assert.Equal(t, updates, f.repo.Calls["UpdateProgress"], "second finalize must not write")

	assert.ErrorIs(t, c.RecordAnswer(ctx, 1, evaluator.Choice("A"), true), ErrCompleted)
	assert.ErrorIs(t, c.Advance(ctx), ErrCompleted)
	_, err := c.Submit(ctx, 1, evaluator.Choice("A"))
	assert.ErrorIs(t, err, ErrCompleted)
}

func TestResumeFidelity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	qs := singleQuestions(6, "A")

	rec := progress.NewRecord(drill.Key(), drill.Scope, 1, []string{"q6", "q5", "q4", "q3", "q2", "q1"}, time.Now().UTC())
	rec.CurrentIndex = 4
	rec.SetVerdict(0, evaluator.Choice("A"), true)
	rec.SetVerdict(1, evaluator.Choice("B"), false)
	require.NoError(t, f.adapter.Create(ctx, rec))

	c := f.controller(drill, WithShuffle(func([]string) []string {
		t.Fatal("resume must not reshuffle")
		return nil
	}))
	require.NoError(t, c.Start(ctx, qs))

	v := c.Snapshot()
	assert.Equal(t, PhaseInProgress, v.Phase)
	assert.Equal(t, 4, v.Record.CurrentIndex)
	assert.Equal(t, []string{"A"}, v.Record.Answers[0].Selected)
	assert.Equal(t, []string{"B"}, v.Record.Answers[1].Selected)
	assert.Equal(t, "q6", v.Questions[0].ID)
	assert.Equal(t, "q5", v.Questions[1].ID)
	cur, ok := v.Current()
	require.True(t, ok)
	assert.Equal(t, "q2", cur.ID)
	assert.Equal(t, 1, v.Record.CorrectCount)
}

func TestResumeDropsMissingQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	rec := progress.NewRecord(drill.Key(), drill.Scope, 1, []string{"q1", "q2", "q3", "q4"}, time.Now().UTC())
	rec.SetVerdict(0, evaluator.Choice("A"), true)
	rec.SetVerdict(1, evaluator.Choice("A"), true)
	rec.SetVerdict(2, evaluator.Choice("B"), false)
	rec.CurrentIndex = 2
	require.NoError(t, f.adapter.Create(ctx, rec))

	// q1 and q3 were removed from the bank.
	bank := []question.Question{singleQuestions(4, "A")[1], singleQuestions(4, "A")[3]}

	c := f.controller(drill)
	require.NoError(t, c.Start(ctx, bank))

	v := c.Snapshot()
	assert.Equal(t, []string{"q2", "q4"}, v.Record.QuestionOrder)
	assert.Equal(t, []int{0}, v.Record.Correct.Sorted())
	assert.Empty(t, v.Record.Incorrect)
	assert.Equal(t, 1, v.Record.CorrectCount)
	assert.Equal(t, 1, v.Record.CurrentIndex, "index moves to the next kept question")
	require.NoError(t, v.Record.Validate())
}

func TestResumeWithEveryQuestionGone(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rec := progress.NewRecord(drill.Key(), drill.Scope, 1, []string{"gone"}, time.Now().UTC())
	require.NoError(t, f.adapter.Create(ctx, rec))

	c := f.controller(drill)
	assert.ErrorIs(t, c.Start(ctx, singleQuestions(2, "A")), ErrNoQuestions)
}

func TestCycleRollover(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	qs := singleQuestions(5, "A")

	first := f.controller(drill)
	require.NoError(t, first.Start(ctx, qs))
	require.NoError(t, first.RecordAnswer(ctx, 0, evaluator.Choice("A"), true))
	require.NoError(t, first.Advance(ctx))
	require.NoError(t, first.Finalize(ctx))
	prevOrder := first.Snapshot().Record.QuestionOrder

	second := f.controller(drill, WithShuffle(reverse))
	require.NoError(t, second.Start(ctx, qs))

	v := second.Snapshot()
	assert.Equal(t, 2, v.Record.Cycle)
	assert.Equal(t, 0, v.Record.CurrentIndex)
	assert.Empty(t, v.Record.Answers)
	assert.Empty(t, v.Record.Correct)
	assert.Empty(t, v.Record.Incorrect)
	assert.False(t, v.Record.Completed)
	assert.NotEqual(t, prevOrder, v.Record.QuestionOrder)
	assert.Equal(t, 2, f.repo.Rows(drill.Key()), "completed cycle is kept as history")

	history, err := f.adapter.History(ctx, drill.Key())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[1].Completed)
	assert.Equal(t, 1, history[1].CorrectCount)
}

// steppingClock advances one second per reading.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Unix(1700000000, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func activeCycles(t *testing.T, f *fixture) []int {
	t.Helper()
	rows, err := f.repo.ListProgress(context.Background(), drill.Key())
	require.NoError(t, err)
	var active []int
	for _, row := range rows {
		if !row.Completed {
			active = append(active, row.Cycle)
		}
	}
	return active
}

func TestRolloverAfterFinalizeOnlyReachedMirror(t *testing.T) {
	ctx := context.Background()
	repo := storetest.New()
	f := &fixture{
		repo:    repo,
		adapter: progress.NewAdapter(repo, progress.WithMirror(progress.NewMirror(afero.NewMemMapFs(), "/cache"))),
	}
	clock := steppingClock()
	qs := singleQuestions(2, "A")

	first := f.controller(drill, WithClock(clock))
	require.NoError(t, first.Start(ctx, qs))
	_, err := first.Submit(ctx, 0, evaluator.Choice("A"))
	require.NoError(t, err)

	f.repo.Fail("UpdateProgress", 2)
	require.Error(t, first.Finalize(ctx))
	require.Error(t, first.Finalize(ctx), "retry fails too")

	second := f.controller(drill, WithClock(clock))
	require.NoError(t, second.Start(ctx, qs))
	assert.Equal(t, 2, second.Snapshot().Record.Cycle)

	assert.Equal(t, []int{2}, activeCycles(t, f), "one active cycle per category")
}

func TestRolloverAfterUnreadableRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.PutRaw(store.ProgressRow{Key: drill.Key(), Cycle: 3, Data: []byte("{")})

	c := f.controller(drill)
	require.NoError(t, c.Start(ctx, singleQuestions(2, "A")))
	assert.Equal(t, 4, c.Snapshot().Record.Cycle)
}

func TestExamSessionDoesNotRollOver(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam := Config{LearnerID: "u1", QuizType: "exam-2A", Scope: "mock-1", SessionID: "s-1", Timed: true, NoRollover: true}

	c := f.controller(exam)
	require.NoError(t, c.Start(ctx, singleQuestions(2, "A")))
	require.NoError(t, c.Finalize(ctx))

	again := f.controller(exam)
	require.NoError(t, again.Start(ctx, singleQuestions(2, "A")))
	v := again.Snapshot()
	assert.Equal(t, PhaseCompleted, v.Phase)
	assert.Equal(t, 1, v.Record.Cycle)
	assert.Equal(t, "s-1", v.Record.SessionID)
	assert.Equal(t, "mock-1", v.Record.Category)
}

func TestTransientInsertFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.Fail("InsertProgress", 1)

	c := f.controller(drill)
	err := c.Start(ctx, singleQuestions(3, "A"))
	require.Error(t, err)
	assert.True(t, progress.IsTransient(err))
	assert.Equal(t, PhaseInProgress, c.Phase(), "learner keeps going")
	assert.True(t, c.Snapshot().Pending)
	assert.Zero(t, f.repo.Rows(drill.Key()))

	require.NoError(t, c.RecordAnswer(ctx, 0, evaluator.Choice("A"), true))
	assert.False(t, c.Snapshot().Pending)
	assert.Equal(t, 1, f.repo.Rows(drill.Key()))

	stored, _, err := f.adapter.Latest(ctx, drill.Key())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CorrectCount)
}

func TestFinalizeRetriesFailedWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.controller(drill)
	require.NoError(t, c.Start(ctx, singleQuestions(2, "A")))

	f.repo.Fail("UpdateProgress", 1)
	err := c.Finalize(ctx)
	assert.True(t, progress.IsTransient(err))
	assert.Equal(t, PhaseCompleted, c.Phase())

	require.NoError(t, c.Finalize(ctx))
	stored, _, err := f.adapter.Latest(ctx, drill.Key())
	require.NoError(t, err)
	assert.True(t, stored.Completed)
}

func TestPersistSurvivesCanceledContext(t *testing.T) {
	f := newFixture()
	c := f.controller(drill)
	require.NoError(t, c.Start(context.Background(), singleQuestions(2, "A")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.RecordAnswer(ctx, 0, evaluator.Choice("A"), true))
	assert.Equal(t, 1, f.repo.Calls["UpdateProgress"])
}

func TestSubmitCompositeLogsSubAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	q := question.Question{
		ID: "p1", QuizType: "single", Category: "physics", Type: question.TypeComposite,
		SubQuestions: []question.SubQuestion{
			{ID: "p1a", ParentID: "p1", ExpectedAnswer: "true"},
			{ID: "p1b", ParentID: "p1", ExpectedAnswer: "false"},
			{ID: "p1c", ParentID: "p1", ExpectedAnswer: "newton"},
		},
	}
	cfg := Config{LearnerID: "u1", QuizType: "single", Scope: "physics"}
	c := f.controller(cfg)
	require.NoError(t, c.Start(ctx, []question.Question{q}))

	res, err := c.Submit(ctx, 0, evaluator.Answer{Sub: map[string]string{"p1a": "true", "p1b": "false", "p1c": "joule"}})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, 2, res.CorrectCount())

	attempts, err := f.repo.Attempts(ctx, "u1", "single", "physics")
	require.NoError(t, err)
	require.Len(t, attempts, 4)
	assert.Equal(t, "", attempts[0].SubQuestionID)
	assert.False(t, attempts[0].Correct)
	assert.Equal(t, "p1c", attempts[3].SubQuestionID)
	assert.Equal(t, "joule", attempts[3].SubmittedAnswer)

	s := BuildSummary(c.Snapshot(), nil)
	require.Len(t, s.Items, 1)
	assert.Len(t, s.Items[0].SubResults, 3)
	assert.Equal(t, 0, s.Correct)
}

type closedExpirer struct{ ch chan struct{} }

func (e closedExpirer) Expired() <-chan struct{} { return e.ch }

func TestTimerAndManualSubmitRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam := Config{LearnerID: "u1", QuizType: "exam", Scope: "mock-1", SessionID: "s-2", Timed: true}
	c := f.controller(exam)
	require.NoError(t, c.Start(ctx, singleQuestions(5, "C")))
	require.NoError(t, c.RecordAnswer(ctx, 0, evaluator.Choice("C"), true))

	exp := closedExpirer{ch: make(chan struct{})}
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- WatchExpiry(ctx, exp, c)
	}()
	go func() {
		defer wg.Done()
		errs <- c.Finalize(ctx)
	}()
	close(exp.ch)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	v := c.Snapshot()
	assert.Equal(t, PhaseCompleted, v.Phase)
	assert.Equal(t, 1, v.Record.CorrectCount)
}

func TestWatchExpiryReadsStateAtExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.controller(Config{LearnerID: "u1", QuizType: "exam", Scope: "mock-1", SessionID: "s-3", Timed: true})
	require.NoError(t, c.Start(ctx, singleQuestions(3, "C")))

	exp := closedExpirer{ch: make(chan struct{})}
	done := make(chan error, 1)
	go func() { done <- WatchExpiry(ctx, exp, c) }()

	// Answers given after the watcher was armed must be in the final record.
	require.NoError(t, c.RecordAnswer(ctx, 0, evaluator.Choice("C"), true))
	require.NoError(t, c.RecordAnswer(ctx, 1, evaluator.Choice("C"), true))
	close(exp.ch)
	require.NoError(t, <-done)

	stored, _, err := f.adapter.Latest(ctx, c.Config().Key())
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, 2, stored.CorrectCount)
}

func TestWatchExpiryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newFixture().controller(drill)
	err := WatchExpiry(ctx, closedExpirer{ch: make(chan struct{})}, c)
	assert.ErrorIs(t, err, context.Canceled)
}
