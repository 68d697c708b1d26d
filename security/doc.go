// Package security builds client TLS configuration for walletkit's network
// backends, such as the Redis keystore.
//
//	tlsCfg, err := (&security.TLSConfig{CAFile: "ca.pem"}).Build()
package security
