package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
	"github.com/custodia-labs/tokenbridge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore implements driven.RecordStore using plain Redis strings.
// Records carry no TTL; the server's own eviction policy governs retention.
type RecordStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRecordStore creates a new Redis-backed RecordStore
func NewRecordStore(client redis.UniversalClient) *RecordStore {
	return &RecordStore{client: client}
}

// NewRecordStoreWithPrefix creates a RecordStore that namespaces every key.
func NewRecordStoreWithPrefix(client redis.UniversalClient, prefix string) *RecordStore {
	return &RecordStore{client: client, prefix: prefix}
}

// Set writes value at key with no expiration
func (s *RecordStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w: %w", domain.ErrServiceUnavailable, err)
	}
	return nil
}

// Get returns the value at key
func (s *RecordStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w: %w", domain.ErrServiceUnavailable, err)
	}
	return value, nil
}

// Ping checks if the Redis backend is healthy.
func (s *RecordStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w: %w", domain.ErrServiceUnavailable, err)
	}
	return nil
}
