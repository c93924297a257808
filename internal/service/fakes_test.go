package service

import (
	"context"
	"sync"
	"time"

	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	t0      = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	nopLog  = zerolog.Nop()
	courseA = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

type fakeCourses struct {
	courses  map[uuid.UUID]*model.Course
	enrolled map[uuid.UUID]map[int]bool
}

func newFakeCourses() *fakeCourses {
	return &fakeCourses{
		courses: map[uuid.UUID]*model.Course{
			courseA: {ID: courseA, Title: "Algorithms", InstructorID: 100},
		},
		enrolled: map[uuid.UUID]map[int]bool{courseA: {1: true}},
	}
}

func (f *fakeCourses) GetByID(_ context.Context, id uuid.UUID) (*model.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCourses) Create(_ context.Context, c *model.Course) error {
	c.ID = uuid.New()
	f.courses[c.ID] = c
	return nil
}

func (f *fakeCourses) ListByInstructor(_ context.Context, instructorID int) ([]model.Course, error) {
	var out []model.Course
	for _, c := range f.courses {
		if c.InstructorID == instructorID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCourses) ListForStudent(_ context.Context, studentID int) ([]model.Course, error) {
	var out []model.Course
	for id, students := range f.enrolled {
		if students[studentID] {
			out = append(out, *f.courses[id])
		}
	}
	return out, nil
}

func (f *fakeCourses) Enroll(_ context.Context, courseID uuid.UUID, studentID int) error {
	if f.enrolled[courseID] == nil {
		f.enrolled[courseID] = map[int]bool{}
	}
	f.enrolled[courseID][studentID] = true
	return nil
}

func (f *fakeCourses) IsEnrolled(_ context.Context, courseID uuid.UUID, studentID int) (bool, error) {
	return f.enrolled[courseID][studentID], nil
}

type fakeExams struct {
	exams   []model.Exam
	courses *fakeCourses
}

func (f *fakeExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	for i := range f.exams {
		if f.exams[i].ID == id {
			e := f.exams[i]
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExams) ListByCourse(_ context.Context, courseID uuid.UUID) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range f.exams {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExams) ListForStudent(_ context.Context, studentID int) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range f.exams {
		if f.courses.enrolled[e.CourseID][studentID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExams) Create(_ context.Context, e *model.Exam) error {
	e.ID = uuid.New()
	f.exams = append(f.exams, *e)
	return nil
}

func (f *fakeExams) Update(_ context.Context, e *model.Exam) error {
	for i := range f.exams {
		if f.exams[i].ID == e.ID {
			f.exams[i] = *e
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeExams) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.exams {
		if f.exams[i].ID == id {
			f.exams = append(f.exams[:i], f.exams[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeSubmissions struct {
	rows     []model.Submission
	inserted []model.Submission
}

func (f *fakeSubmissions) GetByExamAndStudent(_ context.Context, examID uuid.UUID, studentID int) (*model.Submission, error) {
	for i := range f.rows {
		if f.rows[i].ExamID == examID && f.rows[i].StudentID == studentID {
			s := f.rows[i]
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSubmissions) ListByStudent(_ context.Context, studentID int) ([]model.Submission, error) {
	var out []model.Submission
	for _, s := range f.rows {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissions) Insert(_ context.Context, s *model.Submission) error {
	f.inserted = append(f.inserted, *s)
	return nil
}

// fakeCache stands in for the Redis SubmissionCache.
type fakeCache struct {
	mu         sync.Mutex
	pending    map[int]map[uuid.UUID]model.Submission
	starts     map[uuid.UUID]time.Time
	queued     []model.Submission
	published  []model.Submission
	enqueueErr error

	// flushed simulates the worker persisting a competing submission
	// between the pending write and read.
	flushed *model.Submission
	flushTo *fakeSubmissions
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		pending: map[int]map[uuid.UUID]model.Submission{},
		starts:  map[uuid.UUID]time.Time{},
	}
}

func (f *fakeCache) GetPending(_ context.Context, studentID int, examID uuid.UUID) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.pending[studentID][examID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeCache) ListPending(_ context.Context, studentID int) (map[uuid.UUID]model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]model.Submission{}
	for k, v := range f.pending[studentID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeCache) SavePending(_ context.Context, s *model.Submission) (*model.Submission, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending[s.StudentID] == nil {
		f.pending[s.StudentID] = map[uuid.UUID]model.Submission{}
	}
	if existing, ok := f.pending[s.StudentID][s.ExamID]; ok {
		return &existing, false, nil
	}
	if f.flushed != nil {
		f.flushTo.rows = append(f.flushTo.rows, *f.flushed)
		return nil, false, repository.ErrPendingFlushed
	}
	f.pending[s.StudentID][s.ExamID] = *s
	return s, true, nil
}

func (f *fakeCache) ClearPending(_ context.Context, batch []model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range batch {
		delete(f.pending[s.StudentID], s.ExamID)
	}
	return nil
}

func (f *fakeCache) Enqueue(_ context.Context, s *model.Submission) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.queued = append(f.queued, *s)
	return nil
}

func (f *fakeCache) PublishSubmitted(_ context.Context, s *model.Submission) error {
	f.published = append(f.published, *s)
	return nil
}

func (f *fakeCache) StartAttempt(_ context.Context, examID uuid.UUID, _ int, at time.Time, _ time.Duration) (time.Time, error) {
	if started, ok := f.starts[examID]; ok {
		return started, nil
	}
	f.starts[examID] = at
	return at, nil
}

func (f *fakeCache) AttemptStart(_ context.Context, examID uuid.UUID, _ int) (time.Time, bool, error) {
	started, ok := f.starts[examID]
	return started, ok, nil
}

type fakeExamCache struct {
	papers map[uuid.UUID]*model.ExamPaper
	keys   map[uuid.UUID]map[string]model.AnswerKeyEntry
}

func newFakeExamCache() *fakeExamCache {
	return &fakeExamCache{
		papers: map[uuid.UUID]*model.ExamPaper{},
		keys:   map[uuid.UUID]map[string]model.AnswerKeyEntry{},
	}
}

func (f *fakeExamCache) Store(_ context.Context, paper *model.ExamPaper, key map[string]model.AnswerKeyEntry) error {
	f.papers[paper.ExamID] = paper
	f.keys[paper.ExamID] = key
	return nil
}

func (f *fakeExamCache) Paper(_ context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	if p, ok := f.papers[examID]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExamCache) AnswerKey(_ context.Context, examID uuid.UUID) (map[string]model.AnswerKeyEntry, error) {
	if k, ok := f.keys[examID]; ok {
		return k, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExamCache) Invalidate(_ context.Context, examID uuid.UUID) error {
	delete(f.papers, examID)
	delete(f.keys, examID)
	return nil
}

type fakeQuestions struct {
	byExam map[uuid.UUID][]model.Question
}

func (f *fakeQuestions) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	return f.byExam[examID], nil
}

func (f *fakeQuestions) Create(_ context.Context, q *model.Question) error {
	q.ID = uuid.New()
	if f.byExam == nil {
		f.byExam = map[uuid.UUID][]model.Question{}
	}
	f.byExam[q.ExamID] = append(f.byExam[q.ExamID], *q)
	return nil
}

// exam builds an hour-long exam in courseA opening at start.
func exam(title string, start time.Time) model.Exam {
	return model.Exam{
		ID:              uuid.New(),
		CourseID:        courseA,
		Title:           title,
		StartAt:         start,
		EndAt:           start.Add(time.Hour),
		DurationMinutes: 30,
		CreatedBy:       100,
	}
}
