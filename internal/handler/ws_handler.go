package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/examwizards/examwizards-backend/internal/examstatus"
	"github.com/examwizards/examwizards-backend/internal/middleware"
	"github.com/examwizards/examwizards-backend/internal/service"
	ws "github.com/examwizards/examwizards-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

type statusSource interface {
	Now() time.Time
	StatusAt(ctx context.Context, studentID int, examID uuid.UUID, now time.Time) (*service.StudentExam, error)
}

type submissionEvents interface {
	SubscribeSubmitted(ctx context.Context, examID uuid.UUID, studentID int) (*redis.PubSub, error)
}

// WSHandler streams live exam status to students.
type WSHandler struct {
	ctx      context.Context
	status   statusSource
	events   submissionEvents
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. Cancelling ctx closes every open
// stream with a going-away frame.
func NewWSHandler(ctx context.Context, status statusSource, events submissionEvents, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		ctx:      ctx,
		status:   status,
		events:   events,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// wakeAfter returns how long until the status of se can change on its own.
// Submitted and closed exams never change again.
func wakeAfter(se *service.StudentExam, now time.Time) (time.Duration, bool) {
	if se.Submission != nil {
		return 0, false
	}
	next, ok := examstatus.NextTransition(se.Window(), now)
	if !ok {
		return 0, false
	}
	return next.Sub(now), true
}

func statusEvent(se *service.StudentExam, now time.Time) ws.StatusEvent {
	return ws.StatusEvent{Event: ws.EventStatus, ExamID: se.ID, Resolution: se.Resolution, At: now}
}

// ExamStatusStream godoc
// WS /ws/v1/student/exams/:exam_id/status?token=...
// Pushes the exam's status now, at every window boundary and on submission.
// The socket is closed once the status is completed or missed.
func (h *WSHandler) ExamStatusStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}
	studentID := claims.UserID

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	// Subscribe before the first resolution: a submission landing in
	// between must still wake the loop.
	sub, err := h.events.SubscribeSubmitted(ctx, examID, studentID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	defer sub.Close()
	submitted := sub.Channel()

	now := h.status.Now()
	se, err := h.status.StatusAt(c.Request.Context(), studentID, examID, now)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("exam_id", examID.String()).
		Logger()
	wsLog.Debug().Msg("Status stream opened")

	pings := make(chan struct{}, 1)
	go h.readLoop(conn, cancel, pings, wsLog)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		if err := ws.WriteTyped(conn, statusEvent(se, now)); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed")
			return
		}
		if se.Status.Terminal() {
			_ = ws.CloseNormal(conn, string(se.Status))
			return
		}
		if d, ok := wakeAfter(se, now); ok {
			timer.Reset(d)
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				if h.ctx.Err() != nil {
					_ = ws.CloseGoingAway(conn, "server shutting down")
				}
				return
			case <-pings:
				if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
					return
				}
			case <-timer.C:
				break wait
			case _, open := <-submitted:
				if !open {
					return
				}
				timer.Stop()
				break wait
			}
		}

		now = h.status.Now()
		se, err = h.status.StatusAt(ctx, studentID, examID, now)
		if err != nil {
			wsLog.Error().Err(err).Msg("Resolve failed")
			_ = ws.WriteError(conn, "status unavailable")
			return
		}
	}
}

// readLoop consumes client messages until the connection drops.
func (h *WSHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc, pings chan<- struct{}, log zerolog.Logger) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
