// Package storage defines the key/value stores behind a wallet's keystore
// and datastore.
//
// A Store is a set of named indexes. Each Index maps string keys to opaque
// byte values; Typed adds a JSON view on top. Backends register a factory
// under a name and are selected through Config:
//
//	store, err := storage.New(storage.Config{Backend: storage.BackendMemory}, nil, log)
//	keys := storage.Typed[wallet.Key](store.Index("keys"))
//
// The memory backend is built in. Import storage/redis to register "redis".
package storage
