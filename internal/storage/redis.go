package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore accepts either a redis:// URL or a bare host:port.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Lookup(ctx context.Context, key Key) (Entry, bool, error) {
	data, err := r.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e, err := decodeEntry(data)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (r *RedisStore) Save(ctx context.Context, key Key, entry Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key.String(), data, r.ttl).Err()
}

func (r *RedisStore) Close(context.Context) error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
