package model

import (
	"time"

	"github.com/google/uuid"
)

// Course groups exams under one instructor.
type Course struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID int       `json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"omitempty,max=5000"`
}

// EnrollStudentRequest is the payload for enrolling a student into a course.
type EnrollStudentRequest struct {
	StudentEmail string `json:"student_email" binding:"required,email,max=255"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	CourseID   uuid.UUID `json:"course_id"`
	StudentID  int       `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}
