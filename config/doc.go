// Package config loads wallet configuration with Viper.
//
// LoadConfig resolves a config.yml and an optional .env file for a service,
// reads the YAML, overlays environment variables and unmarshals the result
// into a struct with mapstructure tags:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Storage storage.Config `yaml:"storage" mapstructure:"storage"`
//	}
//	err := config.LoadConfig("walletctl", &cfg, config.WithEnvPrefix("WALLET"))
//
// With WALLET as prefix, WALLET_STORAGE_BACKEND=redis sets storage.backend.
package config
