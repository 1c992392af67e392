package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/satyadur/nexora-api/internal/evaluation"
)

// RedisDraftStore persists evaluation drafts as redis blobs with a TTL.
// Last write wins; keys are supplied by the caller.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore builds a draft store over the provided client. A zero
// TTL keeps drafts until explicitly discarded.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

// Save stores the blob under the key, refreshing the TTL.
func (s *RedisDraftStore) Save(ctx context.Context, key string, blob []byte) error {
	return s.client.Set(ctx, key, blob, s.ttl).Err()
}

// Load retrieves the blob, mapping a missing key to ErrDraftNotFound.
func (s *RedisDraftStore) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, evaluation.ErrDraftNotFound
		}
		return nil, err
	}
	return blob, nil
}

// Delete removes the draft; deleting a missing key is not an error.
func (s *RedisDraftStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
