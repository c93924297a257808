// Package examstatus classifies an exam for a single viewer.
//
// Every student-facing listing goes through Resolve so that a given exam
// shows the same status on every screen. Resolve is pure: the caller reads
// the clock once and passes it in as now.
package examstatus

import (
	"time"
)

// Status is the derived lifecycle state of an exam for one student.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
)

// All lists every status in display order.
var All = []Status{StatusUpcoming, StatusActive, StatusCompleted, StatusMissed}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted, StatusMissed:
		return true
	}
	return false
}

// Terminal reports whether s can no longer change over time.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusMissed
}

// ParseStatus converts a raw query value into a Status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.Valid()
}

// Window is the inclusive attempt range [StartAt, EndAt] of an exam.
type Window struct {
	StartAt time.Time
	EndAt   time.Time
}

// Submission is the graded outcome of a student's attempt.
// A non-nil *Submission is the only signal that the exam was submitted.
type Submission struct {
	Score      float64
	TotalMarks float64
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Status     Status   `json:"status"`
	CanAttempt bool     `json:"can_attempt"`
	Percentage *float64 `json:"percentage"`
}

// Resolve classifies an exam window at instant now.
//
// A submission always wins, even before the window opens or after it closes.
// Without one, now is compared against the window with both bounds inclusive.
func Resolve(w Window, now time.Time, sub *Submission) Resolution {
	if sub != nil {
		pct := Percentage(sub.Score, sub.TotalMarks)
		return Resolution{Status: StatusCompleted, Percentage: &pct}
	}

	switch {
	case now.Before(w.StartAt):
		return Resolution{Status: StatusUpcoming}
	case !now.After(w.EndAt):
		return Resolution{Status: StatusActive, CanAttempt: true}
	default:
		return Resolution{Status: StatusMissed}
	}
}

// Percentage returns score as a percentage of total. A non-positive total yields 0.
func Percentage(score, total float64) float64 {
	if total > 0 {
		return 100 * score / total
	}
	return 0
}

// NextTransition returns the instant at which the status of an unsubmitted
// exam changes next. It returns false once the window has closed.
func NextTransition(w Window, now time.Time) (time.Time, bool) {
	switch {
	case now.Before(w.StartAt):
		return w.StartAt, true
	case !now.After(w.EndAt):
		return w.EndAt.Add(time.Nanosecond), true
	default:
		return time.Time{}, false
	}
}
