package storage

import (
	"fmt"

	"github.com/kbukum/walletkit/resilience"
)

// Built-in backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DefaultBackend is used when Config.Backend is empty.
const DefaultBackend = BackendMemory

// Config selects and configures a storage backend.
type Config struct {
	// Backend names a registered factory: "memory" or "redis".
	Backend string `yaml:"backend" mapstructure:"backend" json:"backend"`

	// KeyPrefix namespaces every key a shared backend writes.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix" json:"key_prefix"`

	// Retry, when set, retries failed index operations.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry" json:"-"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "wallet"
	}
	if c.Retry != nil {
		c.Retry.ApplyDefaults()
	}
}

// Validate checks that the backend is registered.
func (c *Config) Validate() error {
	if _, ok := lookup(c.Backend); !ok {
		return fmt.Errorf("storage: unsupported backend %q (registered: %v)", c.Backend, Backends())
	}
	if c.Retry != nil {
		if err := c.Retry.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}
