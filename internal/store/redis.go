package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nao1215/netspider/internal/model"
)

// DefaultRedisPrefix is prepended to document keys when no prefix is configured.
const DefaultRedisPrefix = "netspider:"

// RedisStore keeps each document as a JSON string under "<prefix><name>".
// Checkpoint writes all documents inside one MULTI/EXEC transaction.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr and verifies the connection with PING.
func NewRedisStore(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis store requires an address")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // Ping error takes precedence
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

// key returns the Redis key of a document.
func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

// Load returns the named document, creating an empty one if it is missing.
func (s *RedisStore) Load(ctx context.Context, name string) (*model.Batch, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		// SETNX so a concurrent initializer never clobbers real content.
		if err := s.client.SetNX(ctx, s.key(name), "[]", 0).Err(); err != nil {
			return nil, fmt.Errorf("failed to initialize document %q: %w", name, err)
		}
		return model.NewBatch(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: document %q: %w", ErrCorruptDocument, name, err)
	}

	batch := model.NewBatch()
	if err := json.Unmarshal([]byte(val), batch); err != nil {
		return nil, fmt.Errorf("%w: document %q: %w", ErrCorruptDocument, name, err)
	}
	return batch, nil
}

// Save overwrites the named document.
func (s *RedisStore) Save(ctx context.Context, name string, batch *model.Batch) error {
	return s.Checkpoint(ctx, Document{Name: name, Batch: batch})
}

// Checkpoint overwrites all given documents in one transaction.
func (s *RedisStore) Checkpoint(ctx context.Context, docs ...Document) error {
	payloads := make(map[string][]byte, len(docs))
	for _, doc := range docs {
		if err := validateName(doc.Name); err != nil {
			return err
		}
		data, err := json.Marshal(doc.Batch)
		if err != nil {
			return fmt.Errorf("failed to encode document %q: %w", doc.Name, err)
		}
		payloads[doc.Name] = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, doc := range docs {
			pipe.Set(ctx, s.key(doc.Name), payloads[doc.Name], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
