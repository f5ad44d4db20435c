package position

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pipeview/pkg/cache"
	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/observability"
)

// DefaultRedisPrefix prefixes every key written by a RedisStore.
const DefaultRedisPrefix = "pipeview:positions:"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	URL    string // redis://[user:pass@]host:port/db
	Prefix string // Key prefix (defaults to DefaultRedisPrefix)
}

// RedisStore keeps each position map in a Redis hash, one field per label.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection. Transient
// connection failures are retried with backoff.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis %s", opts.Addr)
	}
	return NewRedisStoreFromClient(client, cfg.Prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

// Load reads the hash for name.
func (s *RedisStore) Load(ctx context.Context, name string) (m Map, err error) {
	start := time.Now()
	defer func() { observability.Store().OnLoad(ctx, "redis", name, len(m), time.Since(start), err) }()

	if err := checkName(name); err != nil {
		return nil, err
	}
	fields, err := s.client.HGetAll(ctx, s.key(name)).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read positions %s", name)
	}
	return Map(fields), nil
}

// Save replaces the hash for name in one transaction.
func (s *RedisStore) Save(ctx context.Context, name string, m Map) (err error) {
	start := time.Now()
	defer func() { observability.Store().OnSave(ctx, "redis", name, len(m), time.Since(start), err) }()

	if err := checkName(name); err != nil {
		return err
	}
	key := s.key(name)
	values := make(map[string]any, len(m))
	for label, v := range m {
		values[label] = v
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write positions %s", name)
	}
	return nil
}

// Delete removes the hash for name.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete positions %s", name)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error { return s.client.Close() }

// String describes the store for log output.
func (s *RedisStore) String() string { return fmt.Sprintf("redis:%s", s.client.Options().Addr) }

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
