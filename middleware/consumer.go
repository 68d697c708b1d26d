package middleware

import (
	"sync"

	"github.com/kbukum/walletkit/logger"
)

// Host is anything that can list providers for a capability.
// *Consumer implements it, so hosts embedding Consumer do too.
type Host interface {
	Providers(name string) []Provider
}

var _ Host = (*Consumer)(nil)

// Consumer owns the registry of one host. The zero value is ready to use;
// embed it in a host type and do not copy it after first use.
type Consumer struct {
	once     sync.Once
	registry *Registry
	log      *logger.Logger
}

func (c *Consumer) init() {
	c.once.Do(func() {
		c.registry = NewRegistry()
		if c.log == nil {
			c.log = logger.Get("middleware")
		}
	})
}

// SetLogger replaces the logger used to report registrations. A nil log
// restores the registered "middleware" logger.
func (c *Consumer) SetLogger(log *logger.Logger) {
	c.init()
	if log == nil {
		log = logger.Get("middleware")
	}
	c.log = log
}

// Use registers middleware. A source is either a Set or a middleware value
// (usually a pointer) whose exported methods of the form func() Stage are
// providers for the capability named after the method. Sources are
// registered in argument order; later registrations wrap earlier ones.
//
// An invalid source registers nothing and stops Use; sources before it
// stay registered.
func (c *Consumer) Use(sources ...any) error {
	c.init()
	for _, src := range sources {
		regs, err := harvest(src)
		if err != nil {
			return err
		}
		for _, r := range regs {
			c.registry.Register(r.name, r.provider)
			c.log.Debug("provider registered", map[string]interface{}{
				logger.FieldCapability: r.name,
				logger.FieldProvider:   r.provider.Source,
			})
		}
	}
	return nil
}

// Providers returns the providers registered for name, oldest first.
func (c *Consumer) Providers(name string) []Provider {
	c.init()
	return c.registry.ListFor(name)
}

// Capabilities returns the sorted names of capabilities with providers.
func (c *Consumer) Capabilities() []string {
	c.init()
	return c.registry.Names()
}
