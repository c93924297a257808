package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrInstructorOnly    ErrCode = "INSTRUCTOR_ACCESS_ONLY"
	ErrNotEnrolled       ErrCode = "NOT_ENROLLED"
	ErrNotCourseOwner    ErrCode = "NOT_COURSE_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation    ErrCode = "VALIDATION_ERROR"
	ErrInvalidID     ErrCode = "INVALID_ID"
	ErrInvalidStatus ErrCode = "INVALID_STATUS_FILTER"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotActive     ErrCode = "EXAM_NOT_ACTIVE"
	ErrAttemptNotStarted ErrCode = "ATTEMPT_NOT_STARTED"
	ErrAttemptExpired    ErrCode = "ATTEMPT_EXPIRED"
	ErrAlreadySubmitted  ErrCode = "ALREADY_SUBMITTED"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrExamLocked        ErrCode = "EXAM_LOCKED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal           ErrCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Invalid email or password.",
	ErrSessionInvalidated: "Your session has ended. Please log in again.",
	ErrTokenRequired:      "An authentication token is required.",
	ErrTokenInvalid:       "The authentication token is invalid or expired.",

	ErrForbidden:         "You do not have permission to access this resource.",
	ErrStudentAccessOnly: "This resource is restricted to students.",
	ErrInstructorOnly:    "This resource is restricted to instructors.",
	ErrNotEnrolled:       "You are not enrolled in this course.",
	ErrNotCourseOwner:    "You do not own this course.",

	ErrValidation:    "Validation failed. Please check your input.",
	ErrInvalidID:     "Invalid ID format.",
	ErrInvalidStatus: "Status filter must be one of upcoming, active, completed, missed.",

	ErrNotFound: "Resource not found.",
	ErrConflict: "Resource already exists.",

	ErrExamNotActive:     "This exam cannot be attempted right now.",
	ErrAttemptNotStarted: "Start the exam before requesting the paper or submitting.",
	ErrAttemptExpired:    "The time allowed for this attempt has passed.",
	ErrAlreadySubmitted:  "This exam has already been submitted.",
	ErrNoQuestions:       "This exam has no questions.",
	ErrExamLocked:        "An exam cannot be changed once its window has opened.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",

	ErrInternal:           "An internal server error occurred.",
	ErrServiceUnavailable: "A required service is unavailable.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
