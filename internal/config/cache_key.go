package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the key holding the JTI of a user's current login.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// PendingSubmissionsKey returns the hash of graded submissions not yet persisted, keyed by exam ID.
func (r *CacheKeyStruct) PendingSubmissionsKey(studentID int) string {
	return fmt.Sprintf("student:%d:pending_submissions", studentID)
}

// AttemptStartKey returns the key holding the Unix start time of a student's attempt.
func (r *CacheKeyStruct) AttemptStartKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:attempt_start", studentID, examID)
}

// ExamPaperKey returns the key of an exam's student-facing question payload.
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// ExamAnswerKey returns the hash of question ID to correct option and marks.
func (r *CacheKeyStruct) ExamAnswerKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

// StudentExamEventsChannel returns the pub/sub channel for a student's exam status events.
func (r *CacheKeyStruct) StudentExamEventsChannel(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:events", studentID, examID)
}

var CacheKey = NewCacheKeyStruct()
