package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/examwizards/examwizards-backend/internal/config"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SubmissionCache is the Redis side of the submission lifecycle: attempt
// start times, graded submissions waiting for the persistence worker, and
// the status event channel.
type SubmissionCache struct {
	rdb *redis.Client
}

// NewSubmissionCache creates a new SubmissionCache.
func NewSubmissionCache(rdb *redis.Client) *SubmissionCache {
	return &SubmissionCache{rdb: rdb}
}

// SavePending records a graded submission unless one already exists for the
// exam. It returns the stored submission and whether this call created it.
// ErrPendingFlushed means the existing entry was persisted and cleared
// between the write and the read; the caller must load it from Postgres.
func (c *SubmissionCache) SavePending(ctx context.Context, s *model.Submission) (*model.Submission, bool, error) {
	key := config.CacheKey.PendingSubmissionsKey(s.StudentID)
	field := s.ExamID.String()

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, false, fmt.Errorf("marshal submission: %w", err)
	}

	created, err := c.rdb.HSetNX(ctx, key, field, raw).Result()
	if err != nil {
		return nil, false, fmt.Errorf("store pending submission: %w", err)
	}
	if created {
		return s, true, nil
	}

	existing, err := c.GetPending(ctx, s.StudentID, s.ExamID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, ErrPendingFlushed
	}
	return existing, false, nil
}

// GetPending returns the pending submission for an exam, or nil.
func (c *SubmissionCache) GetPending(ctx context.Context, studentID int, examID uuid.UUID) (*model.Submission, error) {
	raw, err := c.rdb.HGet(ctx, config.CacheKey.PendingSubmissionsKey(studentID), examID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending submission: %w", err)
	}

	var s model.Submission
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal pending submission: %w", err)
	}
	return &s, nil
}

// ListPending returns all of a student's pending submissions keyed by exam ID.
func (c *SubmissionCache) ListPending(ctx context.Context, studentID int) (map[uuid.UUID]model.Submission, error) {
	fields, err := c.rdb.HGetAll(ctx, config.CacheKey.PendingSubmissionsKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}

	pending := make(map[uuid.UUID]model.Submission, len(fields))
	for _, raw := range fields {
		var s model.Submission
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			continue
		}
		pending[s.ExamID] = s
	}
	return pending, nil
}

// ClearPending drops pending entries once they are persisted.
func (c *SubmissionCache) ClearPending(ctx context.Context, batch []model.Submission) error {
	pipe := c.rdb.Pipeline()
	for _, s := range batch {
		pipe.HDel(ctx, config.CacheKey.PendingSubmissionsKey(s.StudentID), s.ExamID.String())
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Enqueue pushes a submission onto the persistence queue.
func (c *SubmissionCache) Enqueue(ctx context.Context, s *model.Submission) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	return c.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw).Err()
}

// Dequeue blocks up to timeout for the next queued submission.
// It returns (nil, nil) when the timeout elapses.
func (c *SubmissionCache) Dequeue(ctx context.Context, timeout time.Duration) (*model.Submission, error) {
	item, err := c.rdb.BLPop(ctx, timeout, config.WorkerKey.PersistSubmissionsQueue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(item) < 2 {
		return nil, nil
	}

	var s model.Submission
	if err := json.Unmarshal([]byte(item[1]), &s); err != nil {
		return nil, fmt.Errorf("invalid queued submission: %w", err)
	}
	return &s, nil
}

// StartAttempt records the start of an attempt if none is recorded yet and
// returns the effective start time. ttl bounds how long the key survives.
func (c *SubmissionCache) StartAttempt(ctx context.Context, examID uuid.UUID, studentID int, at time.Time, ttl time.Duration) (time.Time, error) {
	key := config.CacheKey.AttemptStartKey(examID.String(), studentID)

	ms := at.UnixMilli()
	set, err := c.rdb.SetNX(ctx, key, ms, ttl).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("store attempt start: %w", err)
	}
	if set {
		return time.UnixMilli(ms).UTC(), nil
	}

	started, ok, err := c.AttemptStart(ctx, examID, studentID)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.UnixMilli(ms).UTC(), nil
	}
	return started, nil
}

// AttemptStart returns the recorded start of an attempt, with millisecond precision.
func (c *SubmissionCache) AttemptStart(ctx context.Context, examID uuid.UUID, studentID int) (time.Time, bool, error) {
	val, err := c.rdb.Get(ctx, config.CacheKey.AttemptStartKey(examID.String(), studentID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get attempt start: %w", err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid attempt start in cache: %w", err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// PublishSubmitted notifies status subscribers that an exam was submitted.
func (c *SubmissionCache) PublishSubmitted(ctx context.Context, s *model.Submission) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	channel := config.CacheKey.StudentExamEventsChannel(s.ExamID.String(), s.StudentID)
	return c.rdb.Publish(ctx, channel, raw).Err()
}

// SubscribeSubmitted subscribes to submission events of one student and exam.
// It returns once Redis has confirmed the subscription, so every event
// published after the call is delivered.
func (c *SubmissionCache) SubscribeSubmitted(ctx context.Context, examID uuid.UUID, studentID int) (*redis.PubSub, error) {
	sub := c.rdb.Subscribe(ctx, config.CacheKey.StudentExamEventsChannel(examID.String(), studentID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe submission events: %w", err)
	}
	return sub, nil
}
