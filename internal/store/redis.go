package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sitesketch/internal/persist"
	"sitesketch/internal/pricing"
)

// RedisStore keeps each sketch document under its own key, with the
// estimate in a sibling key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "sketch:"}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) estimateKey(id string) string {
	return s.prefix + id + ":estimate"
}

// SaveSketch writes the document and drops any previous estimate.
func (s *RedisStore) SaveSketch(ctx context.Context, doc *persist.Document) error {
	data, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(doc.ID), data, 0)
		pipe.Del(ctx, s.estimateKey(doc.ID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("save sketch: %w", err)
	}
	return nil
}

// LoadSketch returns the sketch with id, or persist.ErrNotFound.
func (s *RedisStore) LoadSketch(ctx context.Context, id string) (*persist.Document, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load sketch: %w", err)
	}
	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, err
	}

	est, err := s.client.Get(ctx, s.estimateKey(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, fmt.Errorf("load estimate: %w", err)
	default:
		if doc.Estimate, err = unmarshalEstimate(est); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// SaveEstimate stores the pricing result of a saved sketch.
func (s *RedisStore) SaveEstimate(ctx context.Context, id string, est *pricing.Estimate) error {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("save estimate: %w", err)
	}
	if n == 0 {
		return persist.ErrNotFound
	}
	data, err := json.Marshal(est)
	if err != nil {
		return fmt.Errorf("marshal estimate: %w", err)
	}
	if err := s.client.Set(ctx, s.estimateKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("save estimate: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
