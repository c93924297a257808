package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Question represents a single multiple-choice exam question.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	ExamID        uuid.UUID       `json:"exam_id"`
	QuestionText  string          `json:"question_text"`
	Options       json.RawMessage `json:"options"`
	CorrectOption string          `json:"correct_option"`
	Marks         int             `json:"marks"`
	OrderNum      int             `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"required,min=1,max=2000"`
	Options       json.RawMessage `json:"options" binding:"required"`
	CorrectOption string          `json:"correct_option" binding:"required,max=10"`
	Marks         int             `json:"marks" binding:"required,min=1,max=100"`
	OrderNum      int             `json:"order_num" binding:"min=0"`
}

// AnswerKeyEntry is the cached grading data for one question.
type AnswerKeyEntry struct {
	CorrectOption string `json:"correct_option"`
	Marks         int    `json:"marks"`
}
