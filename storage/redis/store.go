package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/storage"
)

func init() {
	storage.RegisterFactory(storage.BackendRedis, func(cfg storage.Config, backendCfg any, log *logger.Logger) (storage.Store, error) {
		var rc Config
		switch v := backendCfg.(type) {
		case Config:
			rc = v
		case *Config:
			if v != nil {
				rc = *v
			}
		case nil:
		default:
			return nil, fmt.Errorf("redis backend: unexpected config %T", backendCfg)
		}
		client, err := NewClient(rc, log)
		if err != nil {
			return nil, err
		}
		return NewStore(client, cfg.KeyPrefix), nil
	})
}

// Store is a storage.Store that keeps each index in a Redis hash.
type Store struct {
	client *Client
	prefix string
}

// NewStore creates a Store. Hash keys are "{prefix}:{index}".
func NewStore(client *Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Index returns the index called name.
func (s *Store) Index(name string) storage.Index {
	key := name
	if s.prefix != "" {
		key = s.prefix + ":" + name
	}
	return &hashIndex{rdb: s.client.rdb, key: key}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

type hashIndex struct {
	rdb *goredis.Client
	key string
}

func (h *hashIndex) Get(ctx context.Context, field string) ([]byte, error) {
	raw, err := h.rdb.HGet(ctx, h.key, field).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget %s %q: %w", h.key, field, err)
	}
	return raw, nil
}

func (h *hashIndex) Put(ctx context.Context, field string, value []byte) error {
	if err := h.rdb.HSet(ctx, h.key, field, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s %q: %w", h.key, field, err)
	}
	return nil
}

func (h *hashIndex) Delete(ctx context.Context, field string) error {
	if err := h.rdb.HDel(ctx, h.key, field).Err(); err != nil {
		return fmt.Errorf("redis hdel %s %q: %w", h.key, field, err)
	}
	return nil
}

func (h *hashIndex) Clear(ctx context.Context) error {
	if err := h.rdb.Del(ctx, h.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", h.key, err)
	}
	return nil
}

func (h *hashIndex) Keys(ctx context.Context) ([]string, error) {
	keys, err := h.rdb.HKeys(ctx, h.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hkeys %s: %w", h.key, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// compile-time interface check
var _ storage.Store = (*Store)(nil)
