// Package storagetest checks storage.Store implementations against the
// behavior the wallet relies on, and provides fault-injecting stores.
package storagetest

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/kbukum/walletkit/storage"
)

// NewStoreFunc returns an empty store for one subtest.
type NewStoreFunc func(t *testing.T) storage.Store

// Run runs the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore NewStoreFunc) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"MissingKey", testMissingKey},
		{"PutGet", testPutGet},
		{"Overwrite", testOverwrite},
		{"KeysSorted", testKeysSorted},
		{"DeleteMissing", testDeleteMissing},
		{"Clear", testClear},
		{"IndexesSeparate", testIndexesSeparate},
		{"Typed", testTyped},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func testMissingKey(t *testing.T, s storage.Store) {
	if _, err := s.Index("keys").Get(context.Background(), "absent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testPutGet(t *testing.T, s storage.Store) {
	ctx := context.Background()
	idx := s.Index("keys")
	value := []byte("sealed")
	if err := idx.Put(ctx, "addr", value); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value[0] = 'X'
	got, err := idx.Get(ctx, "addr")
	if err != nil || string(got) != "sealed" {
		t.Fatalf("expected an independent copy, got %q (%v)", got, err)
	}
}

func testOverwrite(t *testing.T, s storage.Store) {
	ctx := context.Background()
	idx := s.Index("keys")
	_ = idx.Put(ctx, "addr", []byte("v1"))
	if err := idx.Put(ctx, "addr", []byte("v2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, _ := idx.Get(ctx, "addr"); string(got) != "v2" {
		t.Errorf("expected v2, got %q", got)
	}
}

func testKeysSorted(t *testing.T, s storage.Store) {
	ctx := context.Background()
	idx := s.Index("keys")
	for _, k := range []string{"c", "a", "b"} {
		if err := idx.Put(ctx, k, []byte(k)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	keys, err := idx.Keys(ctx)
	if err != nil || !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Errorf("expected sorted keys, got %v (%v)", keys, err)
	}
}

func testDeleteMissing(t *testing.T, s storage.Store) {
	ctx := context.Background()
	idx := s.Index("keys")
	if err := idx.Delete(ctx, "absent"); err != nil {
		t.Errorf("deleting an absent key must succeed, got %v", err)
	}
	_ = idx.Put(ctx, "addr", []byte("v"))
	if err := idx.Delete(ctx, "addr"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := idx.Get(ctx, "addr"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after Delete, got %v", err)
	}
}

func testClear(t *testing.T, s storage.Store) {
	ctx := context.Background()
	keys, settings := s.Index("keys"), s.Index("settings")
	_ = keys.Put(ctx, "a", []byte("1"))
	_ = settings.Put(ctx, "encryptedId", []byte("2"))
	if err := keys.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := keys.Keys(ctx); len(got) != 0 {
		t.Errorf("expected empty index, got %v", got)
	}
	if _, err := settings.Get(ctx, "encryptedId"); err != nil {
		t.Errorf("Clear must not touch other indexes, got %v", err)
	}
}

func testIndexesSeparate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_ = s.Index("keys").Put(ctx, "k", []byte("1"))
	if _, err := s.Index("settings").Get(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("indexes must not share keys, got %v", err)
	}
	if got, _ := s.Index("keys").Get(ctx, "k"); string(got) != "1" {
		t.Errorf("the same name must reach the same index, got %q", got)
	}
}

type record struct {
	Address string `json:"address"`
	Sealed  []byte `json:"sealed"`
}

func testTyped(t *testing.T, s storage.Store) {
	ctx := context.Background()
	records := storage.Typed[record](s.Index("records"))
	in := record{Address: "addr", Sealed: []byte{1, 2, 3}}
	if err := records.Save(ctx, in.Address, &in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := records.Load(ctx, in.Address)
	if err != nil || !reflect.DeepEqual(*out, in) {
		t.Errorf("expected %+v, got %+v (%v)", in, out, err)
	}
}

// ErrInjected is returned by a Flaky store while it is failing.
var ErrInjected = errors.New("storagetest: injected failure")

// Flaky wraps a store so that its next failures index operations fail
// with ErrInjected.
type Flaky struct {
	storage.Store

	mu       sync.Mutex
	failures int
	calls    int
}

// NewFlaky wraps store with failures pending failures.
func NewFlaky(store storage.Store, failures int) *Flaky {
	return &Flaky{Store: store, failures: failures}
}

// Calls returns the number of index operations attempted.
func (f *Flaky) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Flaky) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return ErrInjected
	}
	return nil
}

// Index returns the wrapped index.
func (f *Flaky) Index(name string) storage.Index {
	return &flakyIndex{Index: f.Store.Index(name), f: f}
}

type flakyIndex struct {
	storage.Index
	f *Flaky
}

func (i *flakyIndex) Get(ctx context.Context, key string) ([]byte, error) {
	if err := i.f.fail(); err != nil {
		return nil, err
	}
	return i.Index.Get(ctx, key)
}

func (i *flakyIndex) Put(ctx context.Context, key string, value []byte) error {
	if err := i.f.fail(); err != nil {
		return err
	}
	return i.Index.Put(ctx, key, value)
}

func (i *flakyIndex) Delete(ctx context.Context, key string) error {
	if err := i.f.fail(); err != nil {
		return err
	}
	return i.Index.Delete(ctx, key)
}

func (i *flakyIndex) Clear(ctx context.Context) error {
	if err := i.f.fail(); err != nil {
		return err
	}
	return i.Index.Clear(ctx)
}

func (i *flakyIndex) Keys(ctx context.Context) ([]string, error) {
	if err := i.f.fail(); err != nil {
		return nil, err
	}
	return i.Index.Keys(ctx)
}
