package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Index.Get for a key that is not stored.
var ErrNotFound = errors.New("storage: not found")

// Store is a collection of named indexes.
type Store interface {
	// Index returns the index called name, creating it on first use.
	Index(name string) Index
	// Close releases backend resources.
	Close() error
}

// Index is one key/value namespace inside a Store.
type Index interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key in the index.
	Clear(ctx context.Context) error
	// Keys returns the stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
}
