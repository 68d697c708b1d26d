package middleware

import (
	"sort"
	"sync"
)

// Provider is one registered provider factory.
type Provider struct {
	// Source names where the provider came from, e.g. "*wallet.StorageMiddleware.Keystore".
	Source  string
	produce func() any
}

// NewProvider wraps produce, which must return a stage value when invoked.
func NewProvider(source string, produce func() any) Provider {
	return Provider{Source: source, produce: produce}
}

// Stage invokes the factory and returns the stage it yields.
func (p Provider) Stage() any {
	if p.produce == nil {
		return nil
	}
	return p.produce()
}

// Registry maps capability names to providers in registration order.
// It is append-only.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]Provider)}
}

// Register appends p to the providers of name.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string][]Provider)
	}
	r.entries[name] = append(r.entries[name], p)
}

// ListFor returns a copy of the providers of name, oldest first.
// Unknown names yield an empty list.
func (r *Registry) ListFor(name string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.entries[name]
	out := make([]Provider, len(list))
	copy(out, list)
	return out
}

// Names returns the sorted names of all capabilities with providers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
