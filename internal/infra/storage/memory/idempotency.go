package memory

import (
	"context"
	"sync"
	"time"

	"programhub/internal/app/middleware"
)

// IdempotencyStore keeps command outcomes in process memory. With a positive TTL,
// records older than the TTL are forgotten on read, matching the Redis and Mongo stores.
type IdempotencyStore struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	records map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if s.expired(rec) {
		delete(s.records, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	return s.TTL > 0 && s.now().Sub(rec.OccurredAt) > s.TTL
}

func (s *IdempotencyStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
