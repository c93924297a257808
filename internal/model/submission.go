package model

import (
	"time"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/google/uuid"
)

// Submission is the graded record of a student's attempt. There is at most
// one per (exam, student); its presence is what marks an exam as submitted.
type Submission struct {
	ID          uuid.UUID `json:"id"`
	ExamID      uuid.UUID `json:"exam_id"`
	StudentID   int       `json:"student_id"`
	Score       float64   `json:"score"`
	TotalMarks  float64   `json:"total_marks"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Outcome projects the submission for status resolution.
func (s *Submission) Outcome() *examstatus.Submission {
	if s == nil {
		return nil
	}
	return &examstatus.Submission{Score: s.Score, TotalMarks: s.TotalMarks}
}

// SubmitExamRequest carries a student's answers keyed by question ID.
type SubmitExamRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// StudentResult is one row of an exam's result sheet.
type StudentResult struct {
	StudentID   int       `json:"student_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Score       float64   `json:"score"`
	TotalMarks  float64   `json:"total_marks"`
	Percentage  float64   `json:"percentage"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ExamStats summarizes the submissions of one exam.
type ExamStats struct {
	Submitted         int     `json:"submitted"`
	AveragePercentage float64 `json:"average_percentage"`
	HighestPercentage float64 `json:"highest_percentage"`
	LowestPercentage  float64 `json:"lowest_percentage"`
}
