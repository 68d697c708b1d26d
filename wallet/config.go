package wallet

import (
	"fmt"

	"github.com/kbukum/walletkit/config"
	"github.com/kbukum/walletkit/encryption"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/middleware"
	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/storage"
	"github.com/kbukum/walletkit/storage/redis"
	"github.com/kbukum/walletkit/validation"
)

// Config configures a wallet built by NewFromConfig.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// AppID is sealed under the passphrase at setup.
	AppID string `yaml:"app_id" mapstructure:"app_id" json:"app_id" validate:"required"`
	// WalletID fixes the wallet id; a random one is used when empty.
	WalletID string `yaml:"wallet_id" mapstructure:"wallet_id" json:"wallet_id"`

	Storage storage.Config       `yaml:"storage" mapstructure:"storage"`
	Redis   redis.Config         `yaml:"redis" mapstructure:"redis"`
	KDF     encryption.KDFParams `yaml:"kdf" mapstructure:"kdf"`

	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`

	// Middleware toggles the stock stages around every capability.
	Middleware MiddlewareConfig `yaml:"middleware" mapstructure:"middleware"`
}

// MiddlewareConfig selects stock stages.
type MiddlewareConfig struct {
	Logging bool `yaml:"logging" mapstructure:"logging"`
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills defaults for every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "walletkit"
	}
	c.ServiceConfig.ApplyDefaults()
	if c.AppID == "" {
		c.AppID = c.Name
	}
	c.Storage.ApplyDefaults()
	if c.Storage.Backend == storage.BackendRedis {
		c.Redis.ApplyDefaults()
	}
	c.KDF.ApplyDefaults()

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.Endpoint == "" {
		d := observability.DefaultTracerConfig(c.Name)
		c.Tracing.Endpoint, c.Tracing.Insecure, c.Tracing.SampleRate = d.Endpoint, d.Insecure, d.SampleRate
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.Endpoint == "" {
		d := observability.DefaultMeterConfig(c.Name)
		c.Metrics.Endpoint, c.Metrics.Insecure, c.Metrics.Interval = d.Endpoint, d.Insecure, d.Interval
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if appErr := validation.New().OptionalUUID("wallet_id", c.WalletID).Validate(); appErr != nil {
		return appErr
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Storage.Backend == storage.BackendRedis {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if err := c.KDF.Validate(); err != nil {
		return err
	}
	return nil
}

// NewFromConfig builds a wallet with storage middleware for the configured
// backend and the enabled stock stages. Close the wallet to release the
// backend. A nil log uses the registered "wallet" logger.
func NewFromConfig(cfg Config, log *logger.Logger) (*Wallet, error) {
	if log == nil {
		log = logger.Get("wallet")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var backendCfg any
	if cfg.Storage.Backend == storage.BackendRedis {
		backendCfg = cfg.Redis
	}
	store, err := storage.New(cfg.Storage, backendCfg, log)
	if err != nil {
		return nil, err
	}

	w := New(WithLogger(log), WithID(cfg.WalletID), WithKDF(cfg.KDF))
	w.closers = append(w.closers, store.Close)

	if err := w.Use(NewStorageMiddleware(w, store, store)); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := useStockStages(w, cfg); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// useStockStages registers the enabled stages on every capability, after
// storage, so they wrap the whole call.
func useStockStages(w *Wallet, cfg Config) error {
	var metrics *observability.Metrics
	if cfg.Middleware.Metrics {
		m, err := observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return err
		}
		metrics = m
	}

	for _, capability := range Capabilities {
		var stages []middleware.Factory[any, any]
		if cfg.Middleware.Metrics {
			stages = append(stages, middleware.Metrics(metrics, capability))
		}
		if cfg.Middleware.Logging {
			stages = append(stages, middleware.Logging(w.Logger(), capability))
		}
		if cfg.Middleware.Tracing {
			stages = append(stages, middleware.Tracing(cfg.Name, capability))
		}
		for _, stage := range stages {
			if err := w.Use(middleware.Set{capability: stage}); err != nil {
				return err
			}
		}
	}
	return nil
}
