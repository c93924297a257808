package websocket

import (
	"time"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/google/uuid"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a client message.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventStatus Event = "status"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// StatusEvent carries the current resolution of one exam for the connected student.
type StatusEvent struct {
	Event  Event     `json:"event"`
	ExamID uuid.UUID `json:"exam_id"`
	examstatus.Resolution
	At time.Time `json:"at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
