package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/examwizards/examwizards-backend/internal/config"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*SubmissionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSubmissionCache(rdb), mr
}

func pendingSubmission(examID uuid.UUID, score float64) *model.Submission {
	return &model.Submission{
		ID:          uuid.New(),
		ExamID:      examID,
		StudentID:   7,
		Score:       score,
		TotalMarks:  10,
		SubmittedAt: time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestSavePendingFirstWriteWins(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	examID := uuid.New()

	first := pendingSubmission(examID, 8)
	got, created, err := cache.SavePending(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ID, got.ID)

	second := pendingSubmission(examID, 2)
	got, created, err = cache.SavePending(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 8.0, got.Score)

	pending, err := cache.ListPending(ctx, 7)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[examID].ID)
}

func TestClearPendingRemovesOnlyBatch(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	a := pendingSubmission(uuid.New(), 1)
	b := pendingSubmission(uuid.New(), 2)
	for _, s := range []*model.Submission{a, b} {
		_, _, err := cache.SavePending(ctx, s)
		require.NoError(t, err)
	}

	require.NoError(t, cache.ClearPending(ctx, []model.Submission{*a}))

	got, err := cache.GetPending(ctx, 7, a.ExamID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = cache.GetPending(ctx, 7, b.ExamID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)
}

func TestStartAttemptKeepsFirstStart(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	examID := uuid.New()

	at := time.Date(2026, time.March, 2, 9, 5, 0, 789_654_321, time.UTC)
	started, err := cache.StartAttempt(ctx, examID, 7, at, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, at.Truncate(time.Millisecond), started, "start keeps millisecond precision")

	again, err := cache.StartAttempt(ctx, examID, 7, at.Add(10*time.Minute), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, started, again)

	stored, ok, err := cache.AttemptStart(ctx, examID, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, started, stored)

	key := config.CacheKey.AttemptStartKey(examID.String(), 7)
	assert.Equal(t, time.Hour, mr.TTL(key))

	_, ok, err = cache.AttemptStart(ctx, uuid.New(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueueIsFIFO(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	a := pendingSubmission(uuid.New(), 1)
	b := pendingSubmission(uuid.New(), 2)
	require.NoError(t, cache.Enqueue(ctx, a))
	require.NoError(t, cache.Enqueue(ctx, b))

	got, err := cache.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = cache.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestSubscribeSubmittedReceivesEvent(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	s := pendingSubmission(uuid.New(), 5)

	sub, err := cache.SubscribeSubmitted(ctx, s.ExamID, s.StudentID)
	require.NoError(t, err)
	defer sub.Close()

	other, err := cache.SubscribeSubmitted(ctx, uuid.New(), s.StudentID)
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, cache.PublishSubmitted(ctx, s))

	select {
	case msg := <-sub.Channel():
		assert.Contains(t, msg.Payload, s.ID.String())
	case <-time.After(2 * time.Second):
		t.Fatal("no submission event")
	}

	select {
	case msg := <-other.Channel():
		t.Fatalf("event leaked to another exam: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}
