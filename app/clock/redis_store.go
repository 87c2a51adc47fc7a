package clock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOverrideKey holds the simulated instant as RFC3339Nano.
const RedisOverrideKey = "survivor:clock:override"

// RedisStore keeps the override in Redis.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, key: RedisOverrideKey}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Get(ctx context.Context) (*time.Time, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("clock.RedisStore.Get: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("clock.RedisStore.Get: bad value %q: %w", raw, err)
	}
	return &at, nil
}

func (s *RedisStore) Set(ctx context.Context, at *time.Time) error {
	var err error
	if at == nil {
		err = s.client.Del(ctx, s.key).Err()
	} else {
		err = s.client.Set(ctx, s.key, at.UTC().Format(time.RFC3339Nano), 0).Err()
	}
	if err != nil {
		return fmt.Errorf("clock.RedisStore.Set: %w", err)
	}
	return nil
}

var _ OverrideStore = (*RedisStore)(nil)
