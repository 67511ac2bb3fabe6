package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "story_session:"

// RedisStore хранит снимки сессий в Redis в виде JSON с TTL.
// Нужен, когда сервер запущен в нескольких экземплярах за балансировщиком.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Compile-time check
var _ Store = (*RedisStore)(nil)

// NewRedisStore создает хранилище сессий поверх клиента Redis.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSessionStore"),
	}
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		r.logger.Error("Failed to get session from redis", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.logger.Error("Failed to unmarshal session snapshot", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return Restore(snap)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID(), err)
	}

	// ttl == 0 в go-redis означает "без истечения".
	if err := r.client.Set(ctx, sessionKey(s.ID()), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save session to redis", zap.String("session_id", s.ID()), zap.Error(err))
		return fmt.Errorf("redis set session %s: %w", s.ID(), err)
	}
	r.logger.Debug("Session saved",
		zap.String("session_id", s.ID()),
		zap.Int("input_count", s.InputCount()),
		zap.String("state", string(s.State())),
	)
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		r.logger.Error("Failed to delete session from redis", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("redis del session %s: %w", id, err)
	}
	if deleted == 0 {
		return ErrSessionNotFound
	}
	return nil
}
