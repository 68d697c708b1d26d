package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// TypedIndex stores values of type C as JSON in an Index.
type TypedIndex[C any] struct {
	index Index
}

// Typed wraps index with JSON encoding for C.
func Typed[C any](index Index) *TypedIndex[C] {
	return &TypedIndex[C]{index: index}
}

// Load decodes the value under key. Missing keys yield ErrNotFound.
func (t *TypedIndex[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := t.index.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var val C
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("typed index unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save encodes val and stores it under key.
func (t *TypedIndex[C]) Save(ctx context.Context, key string, val *C) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed index marshal %q: %w", key, err)
	}
	return t.index.Put(ctx, key, data)
}

// Delete removes key.
func (t *TypedIndex[C]) Delete(ctx context.Context, key string) error {
	return t.index.Delete(ctx, key)
}

// Clear removes every key.
func (t *TypedIndex[C]) Clear(ctx context.Context) error {
	return t.index.Clear(ctx)
}

// Keys lists stored keys in ascending order.
func (t *TypedIndex[C]) Keys(ctx context.Context) ([]string, error) {
	return t.index.Keys(ctx)
}
