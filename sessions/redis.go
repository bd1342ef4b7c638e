package sessions

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore implements Store on Redis using SET with EX, GET and DEL.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key written by the store.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedisStore(client redis.Cmdable, options ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return pkgerrors.Wrap(err, "[RedisStore.Set]")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(err, "[RedisStore.Get]")
	}
	return value, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[RedisStore.Delete]")
	}
	return n, nil
}

// Ping checks the connection to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
