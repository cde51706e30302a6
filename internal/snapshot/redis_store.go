package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Host     string
	Port     string
	Username string
	Password string
}

// RedisStore relies on key expiry for cleanup.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, opts RedisOptions, ttl time.Duration) (*RedisStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	port := opts.Port
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Host + ":" + port,
		Username: opts.Username,
		Password: opts.Password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (st *RedisStore) Save(ctx context.Context, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return st.client.Set(ctx, redisKeyPrefix+s.SessionID, data, st.ttl).Err()
}

func (st *RedisStore) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := st.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", sessionID, err)
	}
	return &s, nil
}

func (st *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return st.client.Del(ctx, redisKeyPrefix+sessionID).Err()
}

func (st *RedisStore) Close() error {
	return st.client.Close()
}
