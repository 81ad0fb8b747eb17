package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"programhub/internal/app/middleware"
)

const keyPrefix = "programhub:idem:"

// Client is the subset of redis commands the store uses; *goredis.Client satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}

// IdempotencyStore keeps command outcomes as JSON values that expire after TTL.
type IdempotencyStore struct {
	client Client
	ttl    time.Duration
}

func NewIdempotencyStore(client Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	var rec middleware.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("decode idempotency record %s: %w", key, err)
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+rec.Key, raw, s.ttl).Err()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
