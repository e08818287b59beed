package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/ports"
)

const redisKeyPrefix = "session:"

// RedisStore persists sessions as JSON blobs with a TTL, so every
// instance behind a load balancer sees the same session.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ ports.SessionStore = (*RedisStore)(nil)

func (s *RedisStore) Save(ctx context.Context, sid string, sess domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+sid, data, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, sid string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	return s.client.Del(ctx, redisKeyPrefix+sid).Err()
}
