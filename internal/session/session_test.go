package session

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/quizcycle/internal/cycle"
	"github.com/abhisek/quizcycle/internal/evaluator"
	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/registry"
	"github.com/abhisek/quizcycle/internal/store"
	"github.com/abhisek/quizcycle/internal/store/storetest"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testBank() *question.Bank {
	var qs []question.Question
	for i := 1; i <= 4; i++ {
		qs = append(qs, question.Question{
			ID:            fmt.Sprintf("net-%d", i),
			QuizType:      "single",
			Category:      "networking",
			Type:          question.TypeSingle,
			Text:          fmt.Sprintf("Networking %d", i),
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: "B",
		})
	}
	return question.NewBank(qs,
		question.Exam{ID: "mock-1", QuizType: "single", QuestionIDs: []string{"net-3", "net-1"}, TimerEnabled: true},
		question.Exam{ID: "open-book", QuizType: "single", QuestionIDs: []string{"net-2"}, TimerEnabled: false},
	)
}

type fixture struct {
	repo *storetest.Memory
	reg  *registry.Registry
}

func newFixture() *fixture {
	repo := storetest.New()
	return &fixture{repo: repo, reg: registry.New(repo)}
}

func (f *fixture) launcher(now time.Time, opts ...Option) *Launcher {
	opts = append([]Option{
		WithClock(func() time.Time { return now }),
		WithShuffle(func(ids []string) []string { return slices.Clone(ids) }),
	}, opts...)
	return NewLauncher(testBank(), progress.NewAdapter(f.repo), f.repo, f.reg, opts...)
}

func TestDrillStartsCycleAndTouchesRegistry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.launcher(t0).Drill(ctx, "u1", "single", "networking")
	require.NoError(t, err)
	defer s.Close()

	v := s.Controller.Snapshot()
	assert.Equal(t, cycle.PhaseInProgress, v.Phase)
	assert.Equal(t, 1, v.Record.Cycle)
	assert.Len(t, v.Questions, 4)
	assert.Nil(t, s.Timer)
	assert.Equal(t, -1, s.Remaining())

	p, err := f.reg.Last(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, DrillTag("single", "networking"), p.OpenSession)
}

func TestDrillUnknownCategory(t *testing.T) {
	f := newFixture()
	_, err := f.launcher(t0).Drill(context.Background(), "u1", "single", "databases")
	assert.ErrorIs(t, err, cycle.ErrNoQuestions)
}

func TestResumeWithNothingOpen(t *testing.T) {
	f := newFixture()
	_, err := f.launcher(t0).Resume(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNothingToResume)
}

func TestResumeReopensDrillWhereItStopped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.launcher(t0).Drill(ctx, "u1", "single", "networking")
	require.NoError(t, err)
	_, err = s.Controller.Submit(ctx, 0, evaluator.Choice("B"))
	require.NoError(t, err)
	require.NoError(t, s.Controller.Advance(ctx))
	s.Close()
	f.reg.Wait()

	resumed, err := f.launcher(t0.Add(time.Hour)).Resume(ctx, "u1")
	require.NoError(t, err)
	defer resumed.Close()

	v := resumed.Controller.Snapshot()
	assert.Equal(t, 1, v.Record.Cycle)
	assert.Equal(t, 1, v.Record.CurrentIndex)
	assert.Equal(t, 1, v.Record.CorrectCount)
}

func TestExamCreatesSessionAndResumesIt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.launcher(t0).Exam(ctx, "u1", "mock-1", "")
	require.NoError(t, err)
	require.NotEmpty(t, s.SessionID)
	require.NotNil(t, s.Timer)
	assert.Equal(t, int((180 * time.Minute).Seconds()), s.Remaining())
	assert.Equal(t, []string{"net-3", "net-1"}, question.IDs(s.Controller.Snapshot().Questions))
	s.Close()
	f.reg.Wait()

	es, err := f.repo.GetExamSession(ctx, s.SessionID)
	require.NoError(t, err)
	assert.True(t, es.TimerEnabled)
	assert.Equal(t, t0, es.StartTime)

	later := f.launcher(t0.Add(30 * time.Minute))
	resumed, err := later.Resume(ctx, "u1")
	require.NoError(t, err)
	defer resumed.Close()

	assert.Equal(t, s.SessionID, resumed.SessionID)
	assert.Equal(t, int((150 * time.Minute).Seconds()), resumed.Remaining())
}

func TestExamPastDeadlineSubmitsOnRun(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.launcher(t0).Exam(ctx, "u1", "mock-1", "")
	require.NoError(t, err)
	_, err = s.Controller.Submit(ctx, 0, evaluator.Choice("B"))
	require.NoError(t, err)
	s.Close()

	late, err := f.launcher(t0.Add(4*time.Hour)).Exam(ctx, "u1", "mock-1", s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, late.Remaining())

	late.Run(ctx)
	require.Eventually(t, func() bool {
		return late.Controller.Phase() == cycle.PhaseCompleted
	}, time.Second, 5*time.Millisecond)
	late.Close()

	v := late.Controller.Snapshot()
	assert.True(t, v.Record.Completed)
	assert.Equal(t, 1, v.Record.CorrectCount)
	assert.Equal(t, 1, v.Record.Answered())

	review, err := f.launcher(t0.Add(5*time.Hour)).Exam(ctx, "u1", "mock-1", s.SessionID)
	require.NoError(t, err)
	defer review.Close()
	assert.Equal(t, cycle.PhaseCompleted, review.Controller.Phase())
	assert.Nil(t, review.Timer)
}

func TestExamWarnsWhenTimeRunsLow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.launcher(t0).Exam(ctx, "u1", "mock-1", "")
	require.NoError(t, err)
	s.Close()

	core, logs := observer.New(zap.WarnLevel)
	ticks := make(chan time.Time)
	src := func() (<-chan time.Time, func()) { return ticks, func() {} }

	now := t0.Add(180*time.Minute - 302*time.Second)
	resumed, err := f.launcher(now, WithLogger(zap.New(core)), WithTickSource(src)).Exam(ctx, "u1", "mock-1", s.SessionID)
	require.NoError(t, err)
	require.Equal(t, 302, resumed.Remaining())

	resumed.Run(ctx)
	defer resumed.Close()

	ticks <- now
	require.Eventually(t, func() bool { return resumed.Remaining() == 301 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, logs.FilterMessage("exam time running low").Len())

	ticks <- now
	require.Eventually(t, func() bool {
		return logs.FilterMessage("exam time running low").Len() == 1
	}, time.Second, 5*time.Millisecond)
	entry := logs.FilterMessage("exam time running low").All()[0]
	assert.Equal(t, int64(300), entry.ContextMap()["remaining_seconds"])
}

func TestExamTimerSwitchedOff(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.launcher(t0, WithTimerEnabled(false)).Exam(ctx, "u1", "mock-1", "")
	require.NoError(t, err)
	defer s.Close()
	assert.Nil(t, s.Timer)

	open, err := f.launcher(t0).Exam(ctx, "u1", "open-book", "")
	require.NoError(t, err)
	defer open.Close()
	assert.Nil(t, open.Timer)
}

func TestExamSessionOfAnotherLearner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.launcher(t0).Exam(ctx, "u1", "mock-1", "")
	require.NoError(t, err)
	s.Close()

	_, err = f.launcher(t0).Exam(ctx, "u2", "mock-1", s.SessionID)
	assert.ErrorIs(t, err, ErrForeignSession)

	_, err = f.launcher(t0).Exam(ctx, "u1", "mock-1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.launcher(t0).Exam(ctx, "u1", "mock-9", "")
	assert.ErrorIs(t, err, question.ErrUnknownExam)
}

func TestDrillSurvivesFailedFirstSave(t *testing.T) {
	f := newFixture()
	f.repo.Fail("InsertProgress", 1)

	s, err := f.launcher(t0).Drill(context.Background(), "u1", "single", "networking")
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.Controller.Snapshot().Pending)
}

// flatCatalog serves composite questions without their parts, the way a
// relational source keeps them in a separate table.
type flatCatalog struct {
	*question.Bank
	subCalls []string
}

func (c *flatCatalog) ByCategory(ctx context.Context, quizType, category string) ([]question.Question, error) {
	qs, err := c.Bank.ByCategory(ctx, quizType, category)
	for i := range qs {
		qs[i].SubQuestions = nil
	}
	return qs, err
}

func (c *flatCatalog) SubQuestions(ctx context.Context, parentID string) ([]question.SubQuestion, error) {
	c.subCalls = append(c.subCalls, parentID)
	return c.Bank.SubQuestions(ctx, parentID)
}

func TestDrillLoadsSubQuestionsFromCatalog(t *testing.T) {
	catalog := &flatCatalog{Bank: question.NewBank([]question.Question{
		{ID: "p1", QuizType: "single", Category: "physics", Type: question.TypeComposite, Text: "Circuit",
			SubQuestions: []question.SubQuestion{
				{ID: "p1a", ParentID: "p1", Text: "Current", ExpectedAnswer: "2A"},
				{ID: "p1b", ParentID: "p1", Text: "Voltage", ExpectedAnswer: "6V"},
			}},
		{ID: "p2", QuizType: "single", Category: "physics", Type: question.TypeSingle, Text: "Unit",
			Options: []string{"ohm", "volt"}, CorrectAnswer: "A"},
	})}

	f := newFixture()
	l := NewLauncher(catalog, progress.NewAdapter(f.repo), f.repo, f.reg,
		WithShuffle(func(ids []string) []string { return slices.Clone(ids) }))
	s, err := l.Drill(context.Background(), "u1", "single", "physics")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"p1"}, catalog.subCalls)
	qs := s.Controller.Snapshot().Questions
	require.Len(t, qs, 2)
	require.Len(t, qs[0].SubQuestions, 2)
	assert.Equal(t, "p1b", qs[0].SubQuestions[1].ID)
	assert.Same(t, question.Catalog(catalog), l.Catalog())
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag        string
		kind, a, b string
		ok         bool
	}{
		{DrillTag("single", "networking"), kindDrill, "single", "networking", true},
		{ExamTag("mock-1"), kindExam, "mock-1", "", true},
		{"drill:single", "", "", "", false},
		{"exam:", "", "", "", false},
		{"networking", "", "", "", false},
		{"lesson:x", "", "", "", false},
	}
	for _, tt := range tests {
		kind, a, b, ok := parseTag(tt.tag)
		assert.Equal(t, tt.ok, ok, tt.tag)
		assert.Equal(t, tt.kind, kind, tt.tag)
		assert.Equal(t, tt.a, a, tt.tag)
		assert.Equal(t, tt.b, b, tt.tag)
	}
}
