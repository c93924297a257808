package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attemptFixture struct {
	*availabilityFixture
	svc    *AttemptService
	clock  time.Time
	papers *ExamService
}

func newAttemptFixture(e model.Exam, now time.Time) *attemptFixture {
	af := newAvailabilityFixture(now, e)

	q1, q2 := uuid.New(), uuid.New()
	questions := &fakeQuestions{byExam: map[uuid.UUID][]model.Question{
		e.ID: {
			{ID: q1, ExamID: e.ID, QuestionText: "2+2?", Options: []byte(`["3","4"]`), CorrectOption: "B", Marks: 2},
			{ID: q2, ExamID: e.ID, QuestionText: "3+3?", Options: []byte(`["6","7"]`), CorrectOption: "A", Marks: 3},
		},
	}}

	f := &attemptFixture{availabilityFixture: af, clock: now}
	clock := func() time.Time { return f.clock }
	af.svc.now = clock

	f.papers = &ExamService{
		exams:     af.exams,
		questions: questions,
		courses:   af.courses,
		cache:     newFakeExamCache(),
		now:       clock,
		log:       nopLog,
	}
	f.svc = &AttemptService{
		status:      af.svc,
		papers:      f.papers,
		attempts:    af.cache,
		submissions: af.subs,
		grace:       2 * time.Minute,
		now:         clock,
		log:         nopLog,
	}
	return f
}

func (f *attemptFixture) answerAll(correct bool) map[string]string {
	key, _ := f.papers.cache.AnswerKey(context.Background(), f.exams.exams[0].ID)
	out := map[string]string{}
	for qid, entry := range key {
		if correct {
			out[qid] = entry.CorrectOption
		} else {
			out[qid] = "Z"
		}
	}
	return out
}

func TestStartRejectsUpcomingAndMissed(t *testing.T) {
	e := exam("e", t0)

	f := newAttemptFixture(e, t0.Add(-time.Second))
	_, err := f.svc.Start(context.Background(), 1, e.ID)
	assert.ErrorIs(t, err, ErrExamNotActive)

	f.clock = e.EndAt.Add(time.Second)
	_, err = f.svc.Start(context.Background(), 1, e.ID)
	assert.ErrorIs(t, err, ErrExamNotActive)
}

func TestStartIsIdempotentAndCapsDeadline(t *testing.T) {
	e := exam("e", t0)
	f := newAttemptFixture(e, e.EndAt.Add(-10*time.Minute))

	a, err := f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.EndAt, a.Deadline, "deadline never exceeds the window end")

	f.clock = f.clock.Add(time.Minute)
	again, err := f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)
	assert.Equal(t, a.StartedAt, again.StartedAt)
}

func TestStartDeadlineFromDuration(t *testing.T) {
	e := exam("e", t0)
	f := newAttemptFixture(e, t0.Add(5*time.Minute))

	a, err := f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(35*time.Minute), a.Deadline)
}

func TestGetPaperRequiresStartedAttempt(t *testing.T) {
	e := exam("e", t0)
	f := newAttemptFixture(e, t0.Add(time.Minute))

	_, err := f.svc.GetPaper(context.Background(), 1, e.ID)
	assert.ErrorIs(t, err, ErrAttemptNotStarted)

	_, err = f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)

	p, err := f.svc.GetPaper(context.Background(), 1, e.ID)
	require.NoError(t, err)
	assert.Len(t, p.Paper.Questions, 2)

	f.clock = f.clock.Add(31 * time.Minute)
	_, err = f.svc.GetPaper(context.Background(), 1, e.ID)
	assert.ErrorIs(t, err, ErrAttemptExpired)
}

func TestSubmitGradesAndCompletes(t *testing.T) {
	e := exam("e", t0)
	f := newAttemptFixture(e, t0.Add(time.Minute))
	_, err := f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)

	sub, created, err := f.svc.Submit(context.Background(), 1, e.ID, f.answerAll(true))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 5.0, sub.Score)
	assert.Equal(t, 5.0, sub.TotalMarks)
	assert.Len(t, f.cache.queued, 1)
	assert.Len(t, f.cache.published, 1)

	se, err := f.availabilityFixture.svc.GetExamStatus(context.Background(), 1, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", string(se.Status))
	assert.False(t, se.CanAttempt)

	again, created, err := f.svc.Submit(context.Background(), 1, e.ID, f.answerAll(false))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sub.ID, again.ID)
	assert.Len(t, f.cache.queued, 1)

	_, err = f.svc.Start(context.Background(), 1, e.ID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitWithinGraceAfterWindowEnd(t *testing.T) {
	e := exam("e", t0)
	f := newAttemptFixture(e, e.EndAt.Add(-5*time.Minute))
	_, err := f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)

	f.clock = e.EndAt.Add(time.Minute)
	_, created, err := f.svc.Submit(context.Background(), 1, e.ID, f.answerAll(false))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestSubmitAfterGraceIsRejected(t *testing.T) {
	e := exam("e", t0)
	f := newAttemptFixture(e, t0)
	_, err := f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)

	f.clock = t0.Add(30*time.Minute + 2*time.Minute + time.Second)
	_, _, err = f.svc.Submit(context.Background(), 1, e.ID, nil)
	assert.ErrorIs(t, err, ErrAttemptExpired)
}

func TestSubmitFallsBackToInsertWhenQueueFails(t *testing.T) {
	e := exam("e", t0)
	f := newAttemptFixture(e, t0)
	_, err := f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)

	f.cache.enqueueErr = errors.New("redis down")
	_, created, err := f.svc.Submit(context.Background(), 1, e.ID, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, f.subs.inserted, 1)
	assert.Empty(t, f.cache.pending[1])
}

func TestGrade(t *testing.T) {
	key := map[string]model.AnswerKeyEntry{
		"q1": {CorrectOption: "A", Marks: 2},
		"q2": {CorrectOption: "b", Marks: 3},
		"q3": {CorrectOption: "C", Marks: 5},
	}

	tests := []struct {
		name         string
		answers      map[string]string
		score, total float64
	}{
		{"all correct", map[string]string{"q1": "A", "q2": "b", "q3": "C"}, 10, 10},
		{"case and space insensitive", map[string]string{"q2": " B "}, 3, 10},
		{"unanswered", nil, 0, 10},
		{"unknown question ignored", map[string]string{"qx": "A"}, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, total := Grade(key, tt.answers)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestSubmitReturnsPersistedWhenPendingWasFlushed(t *testing.T) {
	e := exam("e", t0)
	f := newAttemptFixture(e, t0)
	_, err := f.svc.Start(context.Background(), 1, e.ID)
	require.NoError(t, err)

	first := model.Submission{ID: uuid.New(), ExamID: e.ID, StudentID: 1, Score: 2, TotalMarks: 5, SubmittedAt: t0}
	f.cache.flushed = &first
	f.cache.flushTo = f.subs

	got, created, err := f.svc.Submit(context.Background(), 1, e.ID, f.answerAll(true))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 2.0, got.Score)
	assert.Empty(t, f.cache.queued)
	assert.Empty(t, f.cache.published)
}
