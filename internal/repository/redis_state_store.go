package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisStateKeyPrefix = "storymatrix:state:"

var _ StateStore = (*RedisStateStore)(nil)

// RedisStateStore хранит блобы строковыми ключами Redis без TTL.
type RedisStateStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStateStore(client *redis.Client, logger *zap.Logger) *RedisStateStore {
	return &RedisStateStore{
		client: client,
		logger: logger.Named("RedisStateStore"),
	}
}

func redisStateKey(key string) string {
	return redisStateKeyPrefix + key
}

func (s *RedisStateStore) LoadAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = redisStateKey(k)
	}

	values, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		s.logger.Error("Failed to MGET state", zap.Strings("keys", redisKeys), zap.Error(err))
		return nil, fmt.Errorf("failed to load state from redis: %w", err)
	}
	for i, v := range values {
		if v == nil { // redis.Nil для отдельного ключа приходит как nil
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected redis value type %T for key %s", v, redisKeys[i])
		}
		out[keys[i]] = []byte(str)
	}
	return out, nil
}

func (s *RedisStateStore) SaveAll(ctx context.Context, entries map[string][]byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(ctx, redisStateKey(key), value, 0)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save state to redis", zap.Error(err))
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	s.logger.Debug("State saved", zap.Int("keys", len(entries)))
	return nil
}

func (s *RedisStateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStateStore) Close() error {
	return s.client.Close()
}
