package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/walletkit/logger"
)

// Factory creates a Store from core config and backend-specific
// configuration. Each backend type-asserts backendCfg to its own type.
type Factory func(cfg Config, backendCfg any, log *logger.Logger) (Store, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

func init() {
	RegisterFactory(BackendMemory, func(Config, any, *logger.Logger) (Store, error) {
		return NewMemoryStore(), nil
	})
}

// RegisterFactory registers a backend factory under name. Backend packages
// call this from an init function.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

func lookup(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Backends returns the sorted names of registered backends.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the Store selected by cfg.Backend. A nil log uses the
// registered "storage" logger.
func New(cfg Config, backendCfg any, log *logger.Logger) (Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, _ := lookup(cfg.Backend)

	var l *logger.Logger
	if log == nil {
		l = logger.Get("storage")
	} else {
		l = log.WithComponent("storage")
	}
	l.Info("initializing storage", map[string]interface{}{logger.FieldBackend: cfg.Backend})

	store, err := f(cfg, backendCfg, l)
	if err != nil {
		return nil, fmt.Errorf("storage: create %s backend: %w", cfg.Backend, err)
	}
	if cfg.Retry != nil {
		store = WithRetry(store, *cfg.Retry, l)
	}
	return store, nil
}
