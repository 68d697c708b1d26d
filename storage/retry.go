package storage

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/resilience"
)

// WithRetry wraps store so every index operation is retried per cfg.
// ErrNotFound is an answer, not a failure, and is never retried.
func WithRetry(store Store, cfg resilience.RetryConfig, log *logger.Logger) Store {
	cfg.ApplyDefaults()
	retryIf := cfg.RetryIf
	cfg.RetryIf = func(err error) bool {
		return !errors.Is(err, ErrNotFound) && retryIf(err)
	}
	if log != nil {
		cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
			log.Warn("storage operation failed, retrying", map[string]interface{}{
				"attempt":         attempt,
				"backoff":         backoff.String(),
				logger.FieldError: err.Error(),
			})
		}
	}
	return &retryStore{Store: store, cfg: cfg}
}

type retryStore struct {
	Store
	cfg resilience.RetryConfig
}

func (s *retryStore) Index(name string) Index {
	return &retryIndex{index: s.Store.Index(name), cfg: s.cfg}
}

type retryIndex struct {
	index Index
	cfg   resilience.RetryConfig
}

func (r *retryIndex) Get(ctx context.Context, key string) ([]byte, error) {
	return resilience.Retry(ctx, r.cfg, func() ([]byte, error) { return r.index.Get(ctx, key) })
}

func (r *retryIndex) Put(ctx context.Context, key string, value []byte) error {
	return resilience.Do(ctx, r.cfg, func() error { return r.index.Put(ctx, key, value) })
}

func (r *retryIndex) Delete(ctx context.Context, key string) error {
	return resilience.Do(ctx, r.cfg, func() error { return r.index.Delete(ctx, key) })
}

func (r *retryIndex) Clear(ctx context.Context) error {
	return resilience.Do(ctx, r.cfg, func() error { return r.index.Clear(ctx) })
}

func (r *retryIndex) Keys(ctx context.Context) ([]string, error) {
	return resilience.Retry(ctx, r.cfg, func() ([]string, error) { return r.index.Keys(ctx) })
}
