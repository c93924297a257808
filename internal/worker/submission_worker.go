package worker

import (
	"context"
	"time"

	"github.com/examwizards/examwizards-backend/internal/metrics"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/repository"
	"github.com/rs/zerolog"
)

const (
	SubmissionBatchSize    = 50
	SubmissionBatchTimeout = 2 * time.Second
	SubmissionPollTimeout  = 1 * time.Second
)

type submissionQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*model.Submission, error)
	Enqueue(ctx context.Context, s *model.Submission) error
	ClearPending(ctx context.Context, batch []model.Submission) error
}

type submissionSink interface {
	BulkInsert(ctx context.Context, batch []model.Submission) error
	Insert(ctx context.Context, s *model.Submission) error
}

// SubmissionWorker moves graded submissions from the Redis queue into
// PostgreSQL in batches.
type SubmissionWorker struct {
	queue submissionQueue
	sink  submissionSink
	log   zerolog.Logger
}

func NewSubmissionWorker(queue *repository.SubmissionCache, sink *repository.SubmissionRepository, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		queue: queue,
		sink:  sink,
		log:   log.With().Str("component", "submission_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes what it holds.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SubmissionWorker started")

	batch := make([]model.Submission, 0, SubmissionBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= SubmissionBatchSize || time.Since(lastFlush) >= SubmissionBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			s, err := w.queue.Dequeue(ctx, SubmissionPollTimeout)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Dequeue error")
				}
				continue
			}
			if s == nil {
				continue
			}
			batch = append(batch, *s)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with per-row fallback
// ----------------------------------------------------------------

func (w *SubmissionWorker) flushSafe(ctx context.Context, batch []model.Submission) {
	if len(batch) == 0 {
		return
	}

	persisted := batch
	if err := w.sink.BulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk insert failed, using fallback")

		persisted = make([]model.Submission, 0, len(batch))
		for i := range batch {
			s := &batch[i]
			if err := w.sink.Insert(ctx, s); err != nil {
				w.log.Error().Err(err).
					Str("exam_id", s.ExamID.String()).
					Int("student_id", s.StudentID).
					Msg("insert failed, requeueing")
				if err := w.queue.Enqueue(ctx, s); err != nil {
					w.log.Error().Err(err).Msg("requeue failed")
				}
				continue
			}
			persisted = append(persisted, *s)
		}
	}

	if len(persisted) == 0 {
		return
	}
	metrics.SubmissionsPersisted.Add(float64(len(persisted)))

	// Rows are in PostgreSQL now, so the pending copies can go.
	if err := w.queue.ClearPending(ctx, persisted); err != nil {
		w.log.Warn().Err(err).Msg("clear pending submissions failed")
	}

	w.log.Debug().Int("persisted", len(persisted)).Msg("Batch flushed")
}
