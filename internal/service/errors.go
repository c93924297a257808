package service

import (
	"errors"

	"github.com/examwizards/examwizards-backend/internal/repository"
)

// Domain errors. Handlers map these to response codes with errors.Is.
var (
	ErrNotFound           = repository.ErrNotFound
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrNotEnrolled        = errors.New("student is not enrolled in this course")
	ErrNotCourseOwner     = errors.New("not the instructor of this course")
	ErrNotStudent         = errors.New("user is not a student")
	ErrExamNotActive      = errors.New("exam is not open for attempts")
	ErrAttemptNotStarted  = errors.New("attempt has not been started")
	ErrAttemptExpired     = errors.New("attempt deadline has passed")
	ErrAlreadySubmitted   = errors.New("exam already submitted")
	ErrNoQuestions        = errors.New("exam has no questions")
	ErrExamLocked         = errors.New("exam window has already opened")
)
