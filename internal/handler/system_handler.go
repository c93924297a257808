package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/examwizards/examwizards-backend/internal/config"
	"github.com/examwizards/examwizards-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type healthChecker interface {
	Check(ctx context.Context) (map[string]string, error)
}

// SystemHandler reports liveness of the service and its dependencies.
type SystemHandler struct {
	checker   healthChecker
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(checker healthChecker, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		checker:   checker,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Uptime       string            `json:"uptime"`
	Goroutines   int               `json:"goroutines"`
	GoVersion    string            `json:"go_version"`

	// Worker Queues
	PendingPersistQueue int64 `json:"pending_persist_queue"`
}

// Health godoc
// GET /health
// Returns 200 when PostgreSQL and Redis answer, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	deps, err := h.checker.Check(c.Request.Context())

	report := healthReport{
		Status:       "ok",
		Dependencies: deps,
		Uptime:       time.Since(h.startTime).Truncate(time.Second).String(),
		Goroutines:   runtime.NumGoroutine(),
		GoVersion:    runtime.Version(),
	}

	if err != nil {
		h.log.Warn().Err(err).Msg("Health check failed")
		report.Status = "degraded"
		response.FailWithData(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable, report)
		return
	}

	if n, err := h.rdb.LLen(c.Request.Context(), config.WorkerKey.PersistSubmissionsQueue).Result(); err == nil {
		report.PendingPersistQueue = n
	}

	response.Success(c, http.StatusOK, report)
}
