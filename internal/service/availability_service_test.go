package service

import (
	"context"
	"testing"
	"time"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type availabilityFixture struct {
	svc     *AvailabilityService
	courses *fakeCourses
	exams   *fakeExams
	subs    *fakeSubmissions
	cache   *fakeCache
}

func newAvailabilityFixture(now time.Time, exams ...model.Exam) *availabilityFixture {
	courses := newFakeCourses()
	f := &availabilityFixture{
		courses: courses,
		exams:   &fakeExams{exams: exams, courses: courses},
		subs:    &fakeSubmissions{},
		cache:   newFakeCache(),
	}
	f.svc = &AvailabilityService{
		exams:       f.exams,
		courses:     courses,
		submissions: f.subs,
		pending:     f.cache,
		now:         fixedClock(now),
		log:         nopLog,
	}
	return f
}

func statuses(list []StudentExam) map[string]examstatus.Status {
	out := make(map[string]examstatus.Status, len(list))
	for _, se := range list {
		out[se.Title] = se.Status
	}
	return out
}

func TestListAvailableResolvesEachExam(t *testing.T) {
	now := t0
	past := exam("past", now.Add(-3*time.Hour))
	done := exam("done", now.Add(-3*time.Hour))
	open := exam("open", now.Add(-10*time.Minute))
	later := exam("later", now.Add(time.Hour))

	f := newAvailabilityFixture(now, past, done, open, later)
	f.subs.rows = []model.Submission{{ExamID: done.ID, StudentID: 1, Score: 8, TotalMarks: 10}}

	got, err := f.svc.ListAvailable(context.Background(), 1, "")
	require.NoError(t, err)

	assert.Equal(t, map[string]examstatus.Status{
		"past":  examstatus.StatusMissed,
		"done":  examstatus.StatusCompleted,
		"open":  examstatus.StatusActive,
		"later": examstatus.StatusUpcoming,
	}, statuses(got))

	for _, se := range got {
		assert.Equal(t, se.Status == examstatus.StatusActive, se.CanAttempt, se.Title)
		if se.Title == "done" {
			require.NotNil(t, se.Percentage)
			assert.InDelta(t, 80, *se.Percentage, 1e-9)
		}
	}
}

func TestListAvailableFilter(t *testing.T) {
	open := exam("open", t0.Add(-10*time.Minute))
	later := exam("later", t0.Add(time.Hour))
	f := newAvailabilityFixture(t0, open, later)

	got, err := f.svc.ListAvailable(context.Background(), 1, examstatus.StatusUpcoming)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "later", got[0].Title)
}

func TestListAvailableOnlyEnrolledCourses(t *testing.T) {
	other := exam("other", t0)
	other.CourseID = uuid.New()
	f := newAvailabilityFixture(t0, other)

	got, err := f.svc.ListAvailable(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPendingSubmissionCountsAsCompleted(t *testing.T) {
	open := exam("open", t0.Add(-10*time.Minute))
	f := newAvailabilityFixture(t0, open)
	_, _, err := f.cache.SavePending(context.Background(), &model.Submission{ExamID: open.ID, StudentID: 1, Score: 1, TotalMarks: 4})
	require.NoError(t, err)

	se, err := f.svc.GetExamStatus(context.Background(), 1, open.ID)
	require.NoError(t, err)
	assert.Equal(t, examstatus.StatusCompleted, se.Status)
	assert.False(t, se.CanAttempt)
	require.NotNil(t, se.Percentage)
	assert.InDelta(t, 25, *se.Percentage, 1e-9)
}

func TestPersistedSubmissionWinsOverPending(t *testing.T) {
	open := exam("open", t0.Add(-10*time.Minute))
	f := newAvailabilityFixture(t0, open)
	f.subs.rows = []model.Submission{{ExamID: open.ID, StudentID: 1, Score: 9, TotalMarks: 10}}
	f.cache.pending[1] = map[uuid.UUID]model.Submission{open.ID: {ExamID: open.ID, StudentID: 1, Score: 1, TotalMarks: 10}}

	got, err := f.svc.ListAvailable(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Percentage)
	assert.InDelta(t, 90, *got[0].Percentage, 1e-9)
}

func TestGetExamStatusRequiresEnrollment(t *testing.T) {
	open := exam("open", t0)
	f := newAvailabilityFixture(t0, open)

	_, err := f.svc.GetExamStatus(context.Background(), 2, open.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = f.svc.GetExamStatus(context.Background(), 1, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCourseExams(t *testing.T) {
	open := exam("open", t0)
	f := newAvailabilityFixture(t0, open)

	got, err := f.svc.ListCourseExams(context.Background(), 1, courseA)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, examstatus.StatusActive, got[0].Status)

	_, err = f.svc.ListCourseExams(context.Background(), 2, courseA)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestSummaryIncludesEveryStatus(t *testing.T) {
	f := newAvailabilityFixture(t0,
		exam("a", t0.Add(time.Hour)),
		exam("b", t0.Add(2*time.Hour)),
		exam("c", t0.Add(-5*time.Hour)),
	)

	sum, err := f.svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.ByStatus[examstatus.StatusUpcoming])
	assert.Equal(t, 1, sum.ByStatus[examstatus.StatusMissed])
	assert.Equal(t, 0, sum.ByStatus[examstatus.StatusActive])
	assert.Contains(t, sum.ByStatus, examstatus.StatusCompleted)
}
