package service

import (
	"context"
	"testing"
	"time"

	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExamService(now time.Time, exams ...model.Exam) (*ExamService, *fakeExams, *fakeExamCache) {
	courses := newFakeCourses()
	store := &fakeExams{exams: exams, courses: courses}
	cache := newFakeExamCache()
	svc := &ExamService{
		exams:     store,
		questions: &fakeQuestions{},
		courses:   courses,
		cache:     cache,
		now:       fixedClock(now),
		log:       nopLog,
	}
	return svc, store, cache
}

func TestCreateExamRequiresCourseOwner(t *testing.T) {
	svc, store, _ := newTestExamService(t0)
	req := model.CreateExamRequest{Title: "Midterm", StartAt: t0.Add(time.Hour), EndAt: t0.Add(2 * time.Hour), DurationMinutes: 45}

	_, err := svc.Create(context.Background(), 999, courseA, req)
	assert.ErrorIs(t, err, ErrNotCourseOwner)

	_, err = svc.Create(context.Background(), 100, uuid.New(), req)
	assert.ErrorIs(t, err, ErrNotFound)

	e, err := svc.Create(context.Background(), 100, courseA, req)
	require.NoError(t, err)
	assert.Equal(t, 100, e.CreatedBy)
	assert.Len(t, store.exams, 1)
}

func TestExamLockedOnceWindowOpens(t *testing.T) {
	e := exam("e", t0)
	req := model.UpdateExamRequest{Title: "moved", StartAt: t0.Add(time.Hour), EndAt: t0.Add(2 * time.Hour), DurationMinutes: 30}

	svc, _, _ := newTestExamService(t0, e)
	_, err := svc.Update(context.Background(), 100, e.ID, req)
	assert.ErrorIs(t, err, ErrExamLocked)
	assert.ErrorIs(t, svc.Delete(context.Background(), 100, e.ID), ErrExamLocked)

	svc, store, _ := newTestExamService(t0.Add(-time.Minute), e)
	updated, err := svc.Update(context.Background(), 100, e.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "moved", updated.Title)
	assert.Equal(t, "moved", store.exams[0].Title)
}

func TestAddQuestionWarmsCache(t *testing.T) {
	e := exam("e", t0.Add(time.Hour))
	svc, _, cache := newTestExamService(t0, e)

	q, err := svc.AddQuestion(context.Background(), 100, e.ID, model.AddQuestionRequest{
		QuestionText:  "Capital of France?",
		Options:       []byte(`["Paris","Rome"]`),
		CorrectOption: "A",
		Marks:         4,
	})
	require.NoError(t, err)

	paper, err := cache.Paper(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, paper.Questions, 1)
	assert.Equal(t, q.ID, paper.Questions[0].ID)

	key, err := cache.AnswerKey(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnswerKeyEntry{CorrectOption: "A", Marks: 4}, key[q.ID.String()])
}

func TestPaperWithoutQuestions(t *testing.T) {
	e := exam("e", t0)
	svc, _, _ := newTestExamService(t0, e)

	_, err := svc.Paper(context.Background(), &e)
	assert.ErrorIs(t, err, ErrNoQuestions)
}
