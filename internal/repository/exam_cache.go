package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/examwizards/examwizards-backend/internal/config"
	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ExamCache keeps the student paper and the answer key of an exam in Redis
// so attempts never read questions from PostgreSQL.
type ExamCache struct {
	rdb *redis.Client
}

// NewExamCache creates a new ExamCache.
func NewExamCache(rdb *redis.Client) *ExamCache {
	return &ExamCache{rdb: rdb}
}

// Store replaces the cached paper and answer key of an exam in one pipeline.
func (c *ExamCache) Store(ctx context.Context, paper *model.ExamPaper, key map[string]model.AnswerKeyEntry) error {
	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	fields := make(map[string]interface{}, len(key))
	for qid, entry := range key {
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal answer key: %w", err)
		}
		fields[qid] = raw
	}

	id := paper.ExamID.String()
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.ExamPaperKey(id), paperJSON, 0)
	pipe.Del(ctx, config.CacheKey.ExamAnswerKey(id))
	if len(fields) > 0 {
		pipe.HSet(ctx, config.CacheKey.ExamAnswerKey(id), fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache exam: %w", err)
	}
	return nil
}

// Paper returns the cached paper, or ErrNotFound when the exam was never warmed.
func (c *ExamCache) Paper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}

// AnswerKey returns the cached answer key keyed by question ID.
func (c *ExamCache) AnswerKey(ctx context.Context, examID uuid.UUID) (map[string]model.AnswerKeyEntry, error) {
	raw, err := c.rdb.HGetAll(ctx, config.CacheKey.ExamAnswerKey(examID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	key := make(map[string]model.AnswerKeyEntry, len(raw))
	for qid, v := range raw {
		var entry model.AnswerKeyEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal answer key: %w", err)
		}
		key[qid] = entry
	}
	return key, nil
}

// Invalidate drops the cached paper and answer key of an exam.
func (c *ExamCache) Invalidate(ctx context.Context, examID uuid.UUID) error {
	id := examID.String()
	return c.rdb.Del(ctx, config.CacheKey.ExamPaperKey(id), config.CacheKey.ExamAnswerKey(id)).Err()
}
