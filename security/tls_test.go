package security

import (
	"crypto/tls"
	"strings"
	"testing"

	"github.com/kbukum/walletkit/security/tlstest"
)

func TestBuildDisabled(t *testing.T) {
	for name, cfg := range map[string]*TLSConfig{"nil": nil, "zero": {}} {
		got, err := cfg.Build()
		if err != nil || got != nil {
			t.Errorf("%s: expected no TLS, got %v (%v)", name, got, err)
		}
	}
}

func TestBuildEnabledUsesDefaults(t *testing.T) {
	got, err := (&TLSConfig{Enabled: true}).Build()
	if err != nil || got == nil {
		t.Fatalf("expected config, got %v (%v)", got, err)
	}
	if got.MinVersion != tls.VersionTLS12 || got.RootCAs != nil || got.InsecureSkipVerify {
		t.Errorf("unexpected defaults %+v", got)
	}
}

func TestBuildWithCertificates(t *testing.T) {
	certs := tlstest.Generate(t)
	got, err := (&TLSConfig{
		CAFile:     certs.CAFile,
		CertFile:   certs.CertFile,
		KeyFile:    certs.KeyFile,
		ServerName: "localhost",
		MinVersion: "1.3",
	}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got.RootCAs == nil || len(got.Certificates) != 1 {
		t.Errorf("expected CA pool and client certificate, got %+v", got)
	}
	if got.MinVersion != tls.VersionTLS13 || got.ServerName != "localhost" {
		t.Errorf("unexpected settings %+v", got)
	}
}

func TestBuildErrors(t *testing.T) {
	certs := tlstest.Generate(t)
	tests := []struct {
		name string
		cfg  TLSConfig
		want string
	}{
		{"cert without key", TLSConfig{CertFile: certs.CertFile}, "set together"},
		{"bad version", TLSConfig{Enabled: true, MinVersion: "1.0"}, "min_version"},
		{"missing ca", TLSConfig{CAFile: "/does/not/exist.pem"}, "read ca_file"},
		{"invalid ca", TLSConfig{CAFile: tlstest.WriteInvalidPEM(t)}, "no certificates"},
		{"bad key pair", TLSConfig{CertFile: certs.CertFile, KeyFile: certs.CAFile}, "client certificate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Build()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
