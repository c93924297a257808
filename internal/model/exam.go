package model

import (
	"encoding/json"
	"time"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/google/uuid"
)

// Exam is a timed assessment belonging to a course.
// StartAt <= EndAt is enforced by the request binding and a table CHECK.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	CourseID        uuid.UUID `json:"course_id"`
	Title           string    `json:"title"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedBy       int       `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Window projects the exam's attempt range for status resolution.
func (e *Exam) Window() examstatus.Window {
	return examstatus.Window{StartAt: e.StartAt, EndAt: e.EndAt}
}

// Duration returns the time budget of a started attempt.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=255"`
	StartAt         time.Time `json:"start_at" binding:"required"`
	EndAt           time.Time `json:"end_at" binding:"required,gtefield=StartAt"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// UpdateExamRequest is the payload for updating an existing exam.
// Fields are replaced wholesale so the window is always validated as a pair.
type UpdateExamRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=255"`
	StartAt         time.Time `json:"start_at" binding:"required"`
	EndAt           time.Time `json:"end_at" binding:"required,gtefield=StartAt"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// ExamPaper is the Redis-cached payload sent to students (no correct answers).
type ExamPaper struct {
	ExamID    uuid.UUID            `json:"exam_id"`
	Title     string               `json:"title"`
	Duration  int                  `json:"duration_minutes"`
	Questions []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question without the correct answer.
type QuestionForStudent struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
	Marks        int             `json:"marks"`
	OrderNum     int             `json:"order_num"`
}
