package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/examwizards/examwizards-backend/internal/metrics"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type submissionReader interface {
	GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Submission, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.Submission, error)
}

type pendingReader interface {
	GetPending(ctx context.Context, studentID int, examID uuid.UUID) (*model.Submission, error)
	ListPending(ctx context.Context, studentID int) (map[uuid.UUID]model.Submission, error)
}

// StudentExam is an exam as one student sees it.
type StudentExam struct {
	model.Exam
	examstatus.Resolution
	Submission *model.Submission `json:"submission,omitempty"`
}

// StatusSummary counts a student's exams per status.
type StatusSummary struct {
	Total    int                       `json:"total"`
	ByStatus map[examstatus.Status]int `json:"by_status"`
}

// AvailabilityService answers "which exams can this student take, and in
// what state is each one". It is the only caller of examstatus.Resolve.
type AvailabilityService struct {
	exams       examStore
	courses     courseStore
	submissions submissionReader
	pending     pendingReader
	now         func() time.Time
	log         zerolog.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	exams *repository.ExamRepository,
	courses *repository.CourseRepository,
	submissions *repository.SubmissionRepository,
	pending *repository.SubmissionCache,
	log zerolog.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		exams:       exams,
		courses:     courses,
		submissions: submissions,
		pending:     pending,
		now:         time.Now,
		log:         log.With().Str("component", "availability_service").Logger(),
	}
}

// Now returns the service clock.
func (s *AvailabilityService) Now() time.Time {
	return s.now()
}

// Resolve classifies one exam for a student at instant now.
func Resolve(exam model.Exam, sub *model.Submission, now time.Time) StudentExam {
	res := examstatus.Resolve(exam.Window(), now, sub.Outcome())
	metrics.ExamResolutions.WithLabelValues(string(res.Status)).Inc()
	return StudentExam{Exam: exam, Resolution: res, Submission: sub}
}

// history returns every submission of the student keyed by exam. Persisted
// rows take precedence over pending ones.
func (s *AvailabilityService) history(ctx context.Context, studentID int) (map[uuid.UUID]*model.Submission, error) {
	persisted, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	pending, err := s.pending.ListPending(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}

	out := make(map[uuid.UUID]*model.Submission, len(persisted)+len(pending))
	for examID, sub := range pending {
		sub := sub
		out[examID] = &sub
	}
	for i := range persisted {
		out[persisted[i].ExamID] = &persisted[i]
	}
	return out, nil
}

// submission returns the student's submission for one exam, or nil.
func (s *AvailabilityService) submission(ctx context.Context, examID uuid.UUID, studentID int) (*model.Submission, error) {
	sub, err := s.submissions.GetByExamAndStudent(ctx, examID, studentID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	pending, err := s.pending.GetPending(ctx, studentID, examID)
	if err != nil {
		return nil, fmt.Errorf("get pending submission: %w", err)
	}
	return pending, nil
}

func (s *AvailabilityService) resolveAll(ctx context.Context, studentID int, exams []model.Exam, filter examstatus.Status) ([]StudentExam, error) {
	subs, err := s.history(ctx, studentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]StudentExam, 0, len(exams))
	for _, exam := range exams {
		se := Resolve(exam, subs[exam.ID], now)
		if filter != "" && se.Status != filter {
			continue
		}
		out = append(out, se)
	}
	return out, nil
}

// ListAvailable resolves every exam of every course the student is enrolled
// in. A non-empty filter keeps only exams in that status.
func (s *AvailabilityService) ListAvailable(ctx context.Context, studentID int, filter examstatus.Status) ([]StudentExam, error) {
	exams, err := s.exams.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return s.resolveAll(ctx, studentID, exams, filter)
}

// ListCourseExams resolves the exams of one course the student is enrolled in.
func (s *AvailabilityService) ListCourseExams(ctx context.Context, studentID int, courseID uuid.UUID) ([]StudentExam, error) {
	if err := s.requireEnrollment(ctx, courseID, studentID); err != nil {
		return nil, err
	}
	exams, err := s.exams.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return s.resolveAll(ctx, studentID, exams, "")
}

// GetExamStatus resolves a single exam for the student.
func (s *AvailabilityService) GetExamStatus(ctx context.Context, studentID int, examID uuid.UUID) (*StudentExam, error) {
	return s.StatusAt(ctx, studentID, examID, s.now())
}

// StatusAt resolves a single exam for the student at instant now.
func (s *AvailabilityService) StatusAt(ctx context.Context, studentID int, examID uuid.UUID, now time.Time) (*StudentExam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrollment(ctx, exam.CourseID, studentID); err != nil {
		return nil, err
	}

	sub, err := s.submission(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	se := Resolve(*exam, sub, now)
	return &se, nil
}

// Summary counts the student's exams per status.
func (s *AvailabilityService) Summary(ctx context.Context, studentID int) (*StatusSummary, error) {
	exams, err := s.ListAvailable(ctx, studentID, "")
	if err != nil {
		return nil, err
	}

	sum := &StatusSummary{Total: len(exams), ByStatus: make(map[examstatus.Status]int, len(examstatus.All))}
	for _, st := range examstatus.All {
		sum.ByStatus[st] = 0
	}
	for _, e := range exams {
		sum.ByStatus[e.Status]++
	}
	return sum, nil
}

func (s *AvailabilityService) requireEnrollment(ctx context.Context, courseID uuid.UUID, studentID int) error {
	ok, err := s.courses.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !ok {
		return ErrNotEnrolled
	}
	return nil
}
