package handler

import (
	"context"
	"net/http"

	"github.com/examwizards/examwizards-backend/internal/middleware"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/response"
	"github.com/examwizards/examwizards-backend/internal/service"
	"github.com/examwizards/examwizards-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type instructorCourses interface {
	Create(ctx context.Context, instructorID int, req model.CreateCourseRequest) (*model.Course, error)
	ListByInstructor(ctx context.Context, instructorID int) ([]model.Course, error)
	EnrollStudent(ctx context.Context, courseID uuid.UUID, instructorID int, email string) (*model.Enrollment, error)
}

type examAuthoring interface {
	Create(ctx context.Context, instructorID int, courseID uuid.UUID, req model.CreateExamRequest) (*model.Exam, error)
	ListByCourse(ctx context.Context, instructorID int, courseID uuid.UUID) ([]model.Exam, error)
	Update(ctx context.Context, instructorID int, examID uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error)
	Delete(ctx context.Context, instructorID int, examID uuid.UUID) error
	AddQuestion(ctx context.Context, instructorID int, examID uuid.UUID, req model.AddQuestionRequest) (*model.Question, error)
}

type examResults interface {
	ExamResults(ctx context.Context, instructorID int, examID uuid.UUID, page, perPage int) (*service.ExamResults, *response.Pagination, error)
}

// InstructorHandler serves course and exam management for instructors.
type InstructorHandler struct {
	courses instructorCourses
	exams   examAuthoring
	results examResults
	log     zerolog.Logger
}

// NewInstructorHandler creates a new InstructorHandler.
func NewInstructorHandler(courses instructorCourses, exams examAuthoring, results examResults, log zerolog.Logger) *InstructorHandler {
	return &InstructorHandler{
		courses: courses,
		exams:   exams,
		results: results,
		log:     log.With().Str("component", "instructor_handler").Logger(),
	}
}

// CreateCourse godoc
// POST /api/v1/instructor/courses
func (h *InstructorHandler) CreateCourse(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courses.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// ListCourses godoc
// GET /api/v1/instructor/courses
func (h *InstructorHandler) ListCourses(c *gin.Context) {
	claims := middleware.GetClaims(c)

	courses, err := h.courses.ListByInstructor(c.Request.Context(), claims.UserID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// EnrollStudent godoc
// POST /api/v1/instructor/courses/:course_id/enrollments
func (h *InstructorHandler) EnrollStudent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, ok := uuidParam(c, "course_id")
	if !ok {
		return
	}

	var req model.EnrollStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	enrollment, err := h.courses.EnrollStudent(c.Request.Context(), courseID, claims.UserID, req.StudentEmail)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// ListExams godoc
// GET /api/v1/instructor/courses/:course_id/exams
func (h *InstructorHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, ok := uuidParam(c, "course_id")
	if !ok {
		return
	}

	exams, err := h.exams.ListByCourse(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// CreateExam godoc
// POST /api/v1/instructor/courses/:course_id/exams
func (h *InstructorHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, ok := uuidParam(c, "course_id")
	if !ok {
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.exams.Create(c.Request.Context(), claims.UserID, courseID, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/instructor/exams/:exam_id
func (h *InstructorHandler) UpdateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.exams.Update(c.Request.Context(), claims.UserID, examID, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/instructor/exams/:exam_id
func (h *InstructorHandler) DeleteExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	if err := h.exams.Delete(c.Request.Context(), claims.UserID, examID); err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// AddQuestion godoc
// POST /api/v1/instructor/exams/:exam_id/questions
func (h *InstructorHandler) AddQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.exams.AddQuestion(c.Request.Context(), claims.UserID, examID, req)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// ExamResults godoc
// GET /api/v1/instructor/exams/:exam_id/results?page=&per_page=
func (h *InstructorHandler) ExamResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, page, err := h.results.ExamResults(c.Request.Context(), claims.UserID, examID, q.Page, q.PerPage)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, res, page)
}
