package service

import (
	"context"
	"fmt"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/repository"
	"github.com/examwizards/examwizards-backend/internal/response"
	"github.com/google/uuid"
)

type resultStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.StudentResult, int, error)
	StatsByExam(ctx context.Context, examID uuid.UUID) (*model.ExamStats, error)
}

type examOwnership interface {
	OwnedExam(ctx context.Context, examID uuid.UUID, instructorID int) (*model.Exam, error)
}

// ExamResults is an instructor's view of one exam's submissions.
type ExamResults struct {
	Exam    *model.Exam           `json:"exam"`
	Stats   *model.ExamStats      `json:"stats"`
	Results []model.StudentResult `json:"results"`
}

// ResultService serves exam results to instructors.
type ResultService struct {
	exams   examOwnership
	results resultStore
}

// NewResultService creates a new ResultService.
func NewResultService(exams *ExamService, results *repository.SubmissionRepository) *ResultService {
	return &ResultService{exams: exams, results: results}
}

// ExamResults returns a page of results with percentages plus whole-exam stats.
func (s *ResultService) ExamResults(ctx context.Context, instructorID int, examID uuid.UUID, page, perPage int) (*ExamResults, *response.Pagination, error) {
	exam, err := s.exams.OwnedExam(ctx, examID, instructorID)
	if err != nil {
		return nil, nil, err
	}

	p := response.NewPagination(page, perPage, 0)
	rows, total, err := s.results.ListByExam(ctx, examID, p.PerPage, p.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("list results: %w", err)
	}
	for i := range rows {
		rows[i].Percentage = examstatus.Percentage(rows[i].Score, rows[i].TotalMarks)
	}
	if rows == nil {
		rows = []model.StudentResult{}
	}

	stats, err := s.results.StatsByExam(ctx, examID)
	if err != nil {
		return nil, nil, fmt.Errorf("exam stats: %w", err)
	}

	return &ExamResults{Exam: exam, Stats: stats, Results: rows}, response.NewPagination(p.Page, p.PerPage, total), nil
}
