package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type attemptStore interface {
	StartAttempt(ctx context.Context, examID uuid.UUID, studentID int, at time.Time, ttl time.Duration) (time.Time, error)
	AttemptStart(ctx context.Context, examID uuid.UUID, studentID int) (time.Time, bool, error)
	SavePending(ctx context.Context, s *model.Submission) (*model.Submission, bool, error)
	Enqueue(ctx context.Context, s *model.Submission) error
	ClearPending(ctx context.Context, batch []model.Submission) error
	PublishSubmitted(ctx context.Context, s *model.Submission) error
}

type statusResolver interface {
	StatusAt(ctx context.Context, studentID int, examID uuid.UUID, now time.Time) (*StudentExam, error)
}

type paperSource interface {
	Paper(ctx context.Context, exam *model.Exam) (*model.ExamPaper, error)
	AnswerKey(ctx context.Context, exam *model.Exam) (map[string]model.AnswerKeyEntry, error)
}

type submissionWriter interface {
	GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Submission, error)
	Insert(ctx context.Context, s *model.Submission) error
}

// Attempt is a started attempt of one student at one exam.
type Attempt struct {
	ExamID    uuid.UUID `json:"exam_id"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
}

// AttemptPaper is returned to a student while an attempt is running.
type AttemptPaper struct {
	Attempt
	Paper *model.ExamPaper `json:"paper"`
}

// AttemptService runs the student side of an exam: starting an attempt,
// serving the paper and grading the submission.
type AttemptService struct {
	status      statusResolver
	papers      paperSource
	attempts    attemptStore
	submissions submissionWriter
	grace       time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	availability *AvailabilityService,
	exams *ExamService,
	cache *repository.SubmissionCache,
	submissions *repository.SubmissionRepository,
	grace time.Duration,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		status:      availability,
		papers:      exams,
		attempts:    cache,
		submissions: submissions,
		grace:       grace,
		now:         time.Now,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// deadline is the earlier of the attempt budget running out and the window closing.
func deadline(exam *model.Exam, startedAt time.Time) time.Time {
	d := startedAt.Add(exam.Duration())
	if d.After(exam.EndAt) {
		return exam.EndAt
	}
	return d
}

// Start opens an attempt for an active exam. Starting again returns the
// original start time.
func (s *AttemptService) Start(ctx context.Context, studentID int, examID uuid.UUID) (*Attempt, error) {
	now := s.now()

	se, err := s.status.StatusAt(ctx, studentID, examID, now)
	if err != nil {
		return nil, err
	}
	if se.Status == examstatus.StatusCompleted {
		return nil, ErrAlreadySubmitted
	}
	if !se.CanAttempt {
		return nil, ErrExamNotActive
	}

	if _, err := s.papers.Paper(ctx, &se.Exam); err != nil {
		return nil, err
	}

	ttl := se.EndAt.Sub(now) + s.grace + time.Hour
	startedAt, err := s.attempts.StartAttempt(ctx, examID, studentID, now, ttl)
	if err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Time("started_at", startedAt).
		Msg("Attempt started")

	return &Attempt{ExamID: examID, StartedAt: startedAt, Deadline: deadline(&se.Exam, startedAt)}, nil
}

// running loads the student's started attempt. It fails once now is past
// the attempt deadline plus grace.
func (s *AttemptService) running(ctx context.Context, se *StudentExam, studentID int, now time.Time, grace time.Duration) (*Attempt, error) {
	startedAt, ok, err := s.attempts.AttemptStart(ctx, se.ID, studentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAttemptNotStarted
	}

	a := &Attempt{ExamID: se.ID, StartedAt: startedAt, Deadline: deadline(&se.Exam, startedAt)}
	if now.After(a.Deadline.Add(grace)) {
		return nil, ErrAttemptExpired
	}
	return a, nil
}

// GetPaper returns the questions of a running attempt.
func (s *AttemptService) GetPaper(ctx context.Context, studentID int, examID uuid.UUID) (*AttemptPaper, error) {
	now := s.now()

	se, err := s.status.StatusAt(ctx, studentID, examID, now)
	if err != nil {
		return nil, err
	}
	if se.Status == examstatus.StatusCompleted {
		return nil, ErrAlreadySubmitted
	}

	a, err := s.running(ctx, se, studentID, now, 0)
	if err != nil {
		return nil, err
	}

	paper, err := s.papers.Paper(ctx, &se.Exam)
	if err != nil {
		return nil, err
	}
	return &AttemptPaper{Attempt: *a, Paper: paper}, nil
}

// Grade scores answers against an answer key. Every question in the key
// counts toward the total, answered or not.
func Grade(key map[string]model.AnswerKeyEntry, answers map[string]string) (score, total float64) {
	for qid, entry := range key {
		total += float64(entry.Marks)
		if given, ok := answers[qid]; ok && strings.EqualFold(strings.TrimSpace(given), entry.CorrectOption) {
			score += float64(entry.Marks)
		}
	}
	return score, total
}

// Submit grades and records the student's answers. The first submission
// wins: submitting again returns it with created set to false.
func (s *AttemptService) Submit(ctx context.Context, studentID int, examID uuid.UUID, answers map[string]string) (*model.Submission, bool, error) {
	now := s.now()

	se, err := s.status.StatusAt(ctx, studentID, examID, now)
	if err != nil {
		return nil, false, err
	}
	if se.Submission != nil {
		return se.Submission, false, nil
	}

	if _, err := s.running(ctx, se, studentID, now, s.grace); err != nil {
		return nil, false, err
	}

	key, err := s.papers.AnswerKey(ctx, &se.Exam)
	if err != nil {
		return nil, false, err
	}
	score, total := Grade(key, answers)

	sub := &model.Submission{
		ID:          uuid.New(),
		ExamID:      examID,
		StudentID:   studentID,
		Score:       score,
		TotalMarks:  total,
		SubmittedAt: now.UTC(),
	}

	stored, created, err := s.attempts.SavePending(ctx, sub)
	if errors.Is(err, repository.ErrPendingFlushed) {
		persisted, err := s.submissions.GetByExamAndStudent(ctx, examID, studentID)
		if err != nil {
			return nil, false, fmt.Errorf("load persisted submission: %w", err)
		}
		return persisted, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !created {
		return stored, false, nil
	}

	if err := s.attempts.Enqueue(ctx, stored); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Enqueue failed, persisting synchronously")
		if err := s.submissions.Insert(ctx, stored); err != nil {
			return nil, false, fmt.Errorf("persist submission: %w", err)
		}
		if err := s.attempts.ClearPending(ctx, []model.Submission{*stored}); err != nil {
			s.log.Warn().Err(err).Msg("Failed to clear pending submission")
		}
	}

	if err := s.attempts.PublishSubmitted(ctx, stored); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to publish submission event")
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Float64("score", score).
		Float64("total_marks", total).
		Msg("Exam submitted")
	return stored, true, nil
}
