package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memQueue struct {
	mu      sync.Mutex
	items   []model.Submission
	cleared []model.Submission
}

func (q *memQueue) Dequeue(ctx context.Context, timeout time.Duration) (*model.Submission, error) {
	q.mu.Lock()
	if len(q.items) > 0 {
		s := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()
		return &s, nil
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (q *memQueue) Enqueue(_ context.Context, s *model.Submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, *s)
	return nil
}

func (q *memQueue) ClearPending(_ context.Context, batch []model.Submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cleared = append(q.cleared, batch...)
	return nil
}

type memSink struct {
	mu       sync.Mutex
	bulkErr  error
	badExam  uuid.UUID
	rows     []model.Submission
	bulkRuns int
}

func (s *memSink) BulkInsert(_ context.Context, batch []model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkRuns++
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.rows = append(s.rows, batch...)
	return nil
}

func (s *memSink) Insert(_ context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ExamID == s.badExam {
		return errors.New("constraint violation")
	}
	s.rows = append(s.rows, *sub)
	return nil
}

func submissions(n int) []model.Submission {
	out := make([]model.Submission, n)
	for i := range out {
		out[i] = model.Submission{ID: uuid.New(), ExamID: uuid.New(), StudentID: i + 1, Score: 1, TotalMarks: 2}
	}
	return out
}

func TestFlushBulk(t *testing.T) {
	q, sink := &memQueue{}, &memSink{}
	w := &SubmissionWorker{queue: q, sink: sink, log: zerolog.Nop()}

	w.flushSafe(context.Background(), submissions(3))

	assert.Len(t, sink.rows, 3)
	assert.Len(t, q.cleared, 3)
	assert.Empty(t, q.items)
}

func TestFlushFallbackRequeuesFailures(t *testing.T) {
	batch := submissions(3)
	q := &memQueue{}
	sink := &memSink{bulkErr: errors.New("bulk failed"), badExam: batch[1].ExamID}
	w := &SubmissionWorker{queue: q, sink: sink, log: zerolog.Nop()}

	w.flushSafe(context.Background(), batch)

	assert.Len(t, sink.rows, 2)
	assert.Len(t, q.cleared, 2)
	require.Len(t, q.items, 1)
	assert.Equal(t, batch[1].ID, q.items[0].ID)
}

func TestStartDrainsOnShutdown(t *testing.T) {
	q := &memQueue{items: submissions(5)}
	sink := &memSink{}
	w := &SubmissionWorker{queue: q, sink: sink, log: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.items) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.rows, 5)
}
