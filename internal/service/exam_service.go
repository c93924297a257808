package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type examStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Exam, error)
	ListForStudent(ctx context.Context, studentID int) ([]model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type questionStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	Create(ctx context.Context, q *model.Question) error
}

type examCache interface {
	Store(ctx context.Context, paper *model.ExamPaper, key map[string]model.AnswerKeyEntry) error
	Paper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error)
	AnswerKey(ctx context.Context, examID uuid.UUID) (map[string]model.AnswerKeyEntry, error)
	Invalidate(ctx context.Context, examID uuid.UUID) error
}

// ExamService handles exam authoring and the Redis paper cache.
type ExamService struct {
	exams     examStore
	questions questionStore
	courses   courseStore
	cache     examCache
	now       func() time.Time
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams *repository.ExamRepository,
	questions *repository.QuestionRepository,
	courses *repository.CourseRepository,
	cache *repository.ExamCache,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		exams:     exams,
		questions: questions,
		courses:   courses,
		cache:     cache,
		now:       time.Now,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

func (s *ExamService) requireCourseOwner(ctx context.Context, courseID uuid.UUID, instructorID int) error {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if c.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return nil
}

// OwnedExam loads an exam and checks that the instructor owns its course.
func (s *ExamService) OwnedExam(ctx context.Context, examID uuid.UUID, instructorID int) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseOwner(ctx, exam.CourseID, instructorID); err != nil {
		return nil, err
	}
	return exam, nil
}

// editable returns ErrExamLocked once the exam window has opened.
func (s *ExamService) editable(exam *model.Exam) error {
	if !s.now().Before(exam.StartAt) {
		return ErrExamLocked
	}
	return nil
}

// Create schedules a new exam in a course the instructor owns.
func (s *ExamService) Create(ctx context.Context, instructorID int, courseID uuid.UUID, req model.CreateExamRequest) (*model.Exam, error) {
	if err := s.requireCourseOwner(ctx, courseID, instructorID); err != nil {
		return nil, err
	}

	exam := &model.Exam{
		CourseID:        courseID,
		Title:           req.Title,
		StartAt:         req.StartAt.UTC(),
		EndAt:           req.EndAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       instructorID,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Time("start_at", exam.StartAt).
		Time("end_at", exam.EndAt).
		Msg("Exam created")
	return exam, nil
}

// ListByCourse returns every exam of a course the instructor owns.
func (s *ExamService) ListByCourse(ctx context.Context, instructorID int, courseID uuid.UUID) ([]model.Exam, error) {
	if err := s.requireCourseOwner(ctx, courseID, instructorID); err != nil {
		return nil, err
	}
	exams, err := s.exams.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// Update replaces the schedule of an exam that has not opened yet.
func (s *ExamService) Update(ctx context.Context, instructorID int, examID uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.OwnedExam(ctx, examID, instructorID)
	if err != nil {
		return nil, err
	}
	if err := s.editable(exam); err != nil {
		return nil, err
	}

	exam.Title = req.Title
	exam.StartAt = req.StartAt.UTC()
	exam.EndAt = req.EndAt.UTC()
	exam.DurationMinutes = req.DurationMinutes

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	if err := s.cache.Invalidate(ctx, exam.ID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to invalidate exam cache")
	}
	return exam, nil
}

// Delete removes an exam that has not opened yet.
func (s *ExamService) Delete(ctx context.Context, instructorID int, examID uuid.UUID) error {
	exam, err := s.OwnedExam(ctx, examID, instructorID)
	if err != nil {
		return err
	}
	if err := s.editable(exam); err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, examID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, examID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to invalidate exam cache")
	}
	s.log.Info().Str("exam_id", examID.String()).Msg("Exam deleted")
	return nil
}

// AddQuestion appends a question to an exam that has not opened yet and
// refreshes the cached paper.
func (s *ExamService) AddQuestion(ctx context.Context, instructorID int, examID uuid.UUID, req model.AddQuestionRequest) (*model.Question, error) {
	exam, err := s.OwnedExam(ctx, examID, instructorID)
	if err != nil {
		return nil, err
	}
	if err := s.editable(exam); err != nil {
		return nil, err
	}

	q := &model.Question{
		ExamID:        examID,
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		Marks:         req.Marks,
		OrderNum:      req.OrderNum,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to warm exam cache")
	}
	return q, nil
}

// WarmExamCache loads an exam's paper and answer key from PostgreSQL into Redis.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	questions, err := s.questions.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	paper := &model.ExamPaper{
		ExamID:    exam.ID,
		Title:     exam.Title,
		Duration:  exam.DurationMinutes,
		Questions: make([]model.QuestionForStudent, len(questions)),
	}
	key := make(map[string]model.AnswerKeyEntry, len(questions))
	for i, q := range questions {
		paper.Questions[i] = model.QuestionForStudent{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			Marks:        q.Marks,
			OrderNum:     q.OrderNum,
		}
		key[q.ID.String()] = model.AnswerKeyEntry{CorrectOption: q.CorrectOption, Marks: q.Marks}
	}

	if err := s.cache.Store(ctx, paper, key); err != nil {
		return err
	}

	s.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// Paper returns the cached paper of an exam, warming the cache on a miss.
func (s *ExamService) Paper(ctx context.Context, exam *model.Exam) (*model.ExamPaper, error) {
	paper, err := s.cache.Paper(ctx, exam.ID)
	if err == nil {
		return paper, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err := s.WarmExamCache(ctx, exam); err != nil {
		return nil, err
	}
	return s.cache.Paper(ctx, exam.ID)
}

// AnswerKey returns the cached answer key of an exam, warming the cache on a miss.
func (s *ExamService) AnswerKey(ctx context.Context, exam *model.Exam) (map[string]model.AnswerKeyEntry, error) {
	key, err := s.cache.AnswerKey(ctx, exam.ID)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err := s.WarmExamCache(ctx, exam); err != nil {
		return nil, err
	}
	return s.cache.AnswerKey(ctx, exam.ID)
}
