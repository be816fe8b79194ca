package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"keystone/internal/onboarding/models"
	"keystone/pkg/platform/sentinel"
)

// RedisStore keeps one snapshot per key. A zero TTL keeps slots forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL expires idle slots after ttl. Every save refreshes it.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedis constructs a Redis-backed snapshot store.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) Load(ctx context.Context, slot Slot) (models.Snapshot, error) {
	data, err := s.client.Get(ctx, slot.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load snapshot: %w: %w", sentinel.ErrUnavailable, err)
	}
	return decodeSnapshot(data)
}

func (s *RedisStore) Save(ctx context.Context, slot Slot, snap models.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, slot.Key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, slot Slot) error {
	if err := s.client.Del(ctx, slot.Key()).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
