package handler

import (
	"errors"
	"net/http"

	"github.com/examwizards/examwizards-backend/internal/repository"
	"github.com/examwizards/examwizards-backend/internal/response"
	"github.com/examwizards/examwizards-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type errMapping struct {
	err    error
	status int
	code   response.ErrCode
}

var errMappings = []errMapping{
	{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrSessionInvalidated, http.StatusUnauthorized, response.ErrSessionInvalidated},
	{service.ErrNotEnrolled, http.StatusForbidden, response.ErrNotEnrolled},
	{service.ErrNotCourseOwner, http.StatusForbidden, response.ErrNotCourseOwner},
	{service.ErrNotStudent, http.StatusUnprocessableEntity, response.ErrValidation},
	{service.ErrExamNotActive, http.StatusConflict, response.ErrExamNotActive},
	{service.ErrAttemptNotStarted, http.StatusConflict, response.ErrAttemptNotStarted},
	{service.ErrAttemptExpired, http.StatusGone, response.ErrAttemptExpired},
	{service.ErrAlreadySubmitted, http.StatusConflict, response.ErrAlreadySubmitted},
	{service.ErrNoQuestions, http.StatusConflict, response.ErrNoQuestions},
	{service.ErrExamLocked, http.StatusConflict, response.ErrExamLocked},
	{repository.ErrDuplicateEmail, http.StatusConflict, response.ErrConflict},
	{repository.ErrDuplicate, http.StatusConflict, response.ErrConflict},
}

// failErr maps a service error onto the response envelope. Unknown errors
// are logged and reported as internal errors.
func failErr(c *gin.Context, log zerolog.Logger, err error) {
	for _, m := range errMappings {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}

	log.Error().Err(err).
		Str("path", c.FullPath()).
		Str("request_id", c.GetString(response.ContextKeyRequestID)).
		Msg("Unhandled error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// uuidParam parses a UUID path parameter, replying 400 when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
