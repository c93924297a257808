package handler

import (
	"context"
	"net/http"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/examwizards/examwizards-backend/internal/middleware"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/response"
	"github.com/examwizards/examwizards-backend/internal/service"
	"github.com/examwizards/examwizards-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type studentCourses interface {
	ListForStudent(ctx context.Context, studentID int) ([]model.Course, error)
}

type availability interface {
	ListAvailable(ctx context.Context, studentID int, filter examstatus.Status) ([]service.StudentExam, error)
	ListCourseExams(ctx context.Context, studentID int, courseID uuid.UUID) ([]service.StudentExam, error)
	GetExamStatus(ctx context.Context, studentID int, examID uuid.UUID) (*service.StudentExam, error)
	Summary(ctx context.Context, studentID int) (*service.StatusSummary, error)
}

type attempts interface {
	Start(ctx context.Context, studentID int, examID uuid.UUID) (*service.Attempt, error)
	GetPaper(ctx context.Context, studentID int, examID uuid.UUID) (*service.AttemptPaper, error)
	Submit(ctx context.Context, studentID int, examID uuid.UUID, answers map[string]string) (*model.Submission, bool, error)
}

// StudentHandler serves the student portal: courses, exam listings with
// derived statuses, and attempts.
type StudentHandler struct {
	courses      studentCourses
	availability availability
	attempts     attempts
	log          zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(courses studentCourses, availability availability, attempts attempts, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		courses:      courses,
		availability: availability,
		attempts:     attempts,
		log:          log.With().Str("component", "student_handler").Logger(),
	}
}

// ListCourses godoc
// GET /api/v1/student/courses
func (h *StudentHandler) ListCourses(c *gin.Context) {
	claims := middleware.GetClaims(c)

	courses, err := h.courses.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// ListCourseExams godoc
// GET /api/v1/student/courses/:course_id/exams
func (h *StudentHandler) ListCourseExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, ok := uuidParam(c, "course_id")
	if !ok {
		return
	}

	exams, err := h.availability.ListCourseExams(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// ListExams godoc
// GET /api/v1/student/exams?status=upcoming|active|completed|missed
// Lists every exam of the student's courses with its derived status.
func (h *StudentHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var q model.ExamListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidStatus, fields)
		return
	}

	exams, err := h.availability.ListAvailable(c.Request.Context(), claims.UserID, examstatus.Status(q.Status))
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Summary godoc
// GET /api/v1/student/exams/summary
func (h *StudentHandler) Summary(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sum, err := h.availability.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sum)
}

// GetExam godoc
// GET /api/v1/student/exams/:exam_id
func (h *StudentHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	exam, err := h.availability.GetExamStatus(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// StartExam godoc
// POST /api/v1/student/exams/:exam_id/start
// Opens an attempt. Only allowed while the exam is active and unsubmitted.
func (h *StudentHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	attempt, err := h.attempts.Start(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetPaper godoc
// GET /api/v1/student/exams/:exam_id/paper
func (h *StudentHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	paper, err := h.attempts.GetPaper(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// SubmitExam godoc
// POST /api/v1/student/exams/:exam_id/submit
// Grades the answers. Repeating the call returns the first submission with 200.
func (h *StudentHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, created, err := h.attempts.Submit(c.Request.Context(), claims.UserID, examID, req.Answers)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{
		"submission": sub,
		"percentage": examstatus.Percentage(sub.Score, sub.TotalMarks),
	})
}
