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

type courseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	Create(ctx context.Context, c *model.Course) error
	ListByInstructor(ctx context.Context, instructorID int) ([]model.Course, error)
	ListForStudent(ctx context.Context, studentID int) ([]model.Course, error)
	Enroll(ctx context.Context, courseID uuid.UUID, studentID int) error
	IsEnrolled(ctx context.Context, courseID uuid.UUID, studentID int) (bool, error)
}

// CourseService handles courses and enrollments.
type CourseService struct {
	courses courseStore
	users   userStore
	log     zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(courses *repository.CourseRepository, users *repository.UserRepository, log zerolog.Logger) *CourseService {
	return &CourseService{
		courses: courses,
		users:   users,
		log:     log.With().Str("component", "course_service").Logger(),
	}
}

// Create stores a new course owned by the instructor.
func (s *CourseService) Create(ctx context.Context, instructorID int, req model.CreateCourseRequest) (*model.Course, error) {
	c := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: instructorID,
	}
	if err := s.courses.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.log.Info().Str("course_id", c.ID.String()).Int("instructor_id", instructorID).Msg("Course created")
	return c, nil
}

// ListByInstructor returns the courses an instructor owns.
func (s *CourseService) ListByInstructor(ctx context.Context, instructorID int) ([]model.Course, error) {
	courses, err := s.courses.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

// ListForStudent returns the courses a student is enrolled in.
func (s *CourseService) ListForStudent(ctx context.Context, studentID int) ([]model.Course, error) {
	courses, err := s.courses.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

// OwnedCourse loads a course and checks that the instructor owns it.
func (s *CourseService) OwnedCourse(ctx context.Context, courseID uuid.UUID, instructorID int) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c.InstructorID != instructorID {
		return nil, ErrNotCourseOwner
	}
	return c, nil
}

// EnrollStudent adds the student with the given email to the course.
// Enrolling an already enrolled student is a no-op.
func (s *CourseService) EnrollStudent(ctx context.Context, courseID uuid.UUID, instructorID int, email string) (*model.Enrollment, error) {
	if _, err := s.OwnedCourse(ctx, courseID, instructorID); err != nil {
		return nil, err
	}

	student, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student.Role != model.RoleStudent {
		return nil, ErrNotStudent
	}

	if err := s.courses.Enroll(ctx, courseID, student.ID); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	return &model.Enrollment{CourseID: courseID, StudentID: student.ID, EnrolledAt: time.Now().UTC()}, nil
}

// RequireEnrollment returns ErrNotEnrolled unless the student is enrolled in the course.
func (s *CourseService) RequireEnrollment(ctx context.Context, courseID uuid.UUID, studentID int) error {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return err
	}
	ok, err := s.courses.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !ok {
		return ErrNotEnrolled
	}
	return nil
}
