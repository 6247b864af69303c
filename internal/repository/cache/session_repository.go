package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leaf-research-be/pkg/rag/session"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "leaf:session:"

// RedisSessionRepository shares session contexts between API instances.
type RedisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) *RedisSessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(threadID string) string {
	return sessionKeyPrefix + threadID
}

func (r *RedisSessionRepository) Save(ctx context.Context, c *session.Context) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal session context: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(c.ThreadID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Get(ctx context.Context, threadID string) (*session.Context, bool, error) {
	payload, err := r.rdb.Get(ctx, sessionKey(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session: %w", err)
	}

	var c session.Context
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, false, fmt.Errorf("decode session context: %w", err)
	}
	return &c, true, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, threadID string) error {
	if err := r.rdb.Del(ctx, sessionKey(threadID)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
