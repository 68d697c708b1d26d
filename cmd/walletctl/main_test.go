package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

const testConfig = `
name: walletctl
environment: development
logging:
  level: error
  format: json
kdf:
  time: 1
  memory_kb: 64
  threads: 1
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// field returns the value printed after "name: ".
func field(t *testing.T, out, name string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, name+": "); ok {
			return v
		}
	}
	t.Fatalf("no %q in output %q", name, out)
	return ""
}

func TestKeygenSignVerifyWithExportedKey(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, err := run(t, "keygen", "-c", cfg, "--passphrase", "secret-passphrase", "--export-password", "pw")
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	address, exported := field(t, out, "address"), field(t, out, "exported")

	out, err = run(t, "sign", "-c", cfg, "-a", address, "--key", exported, "--password", "pw", "hello")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig := strings.TrimSpace(out)

	out, err = run(t, "verify", "-c", cfg, "-a", address, "-s", sig, "hello")
	if err != nil || strings.TrimSpace(out) != "valid" {
		t.Fatalf("verify: %q (%v)", out, err)
	}
	if _, err := run(t, "verify", "-c", cfg, "-a", address, "-s", sig, "tampered"); err == nil {
		t.Error("expected verification of another message to fail")
	}
	if _, err := run(t, "sign", "-c", cfg, "-a", address, "--key", exported, "--password", "wrong", "hello"); err == nil {
		t.Error("expected wrong export password to fail")
	}
}

func TestKeystoreAcrossInvocations(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mini.Close)
	cfg := writeConfig(t, testConfig+"storage:\n  backend: redis\nredis:\n  addr: "+mini.Addr()+"\n")

	out, err := run(t, "keygen", "-c", cfg, "--passphrase", "secret-passphrase")
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	address := field(t, out, "address")

	out, err = run(t, "list", "-c", cfg)
	if err != nil || strings.TrimSpace(out) != address {
		t.Fatalf("list: %q (%v)", out, err)
	}

	if _, err := run(t, "keygen", "-c", cfg); err == nil || !strings.Contains(err.Error(), "unlock wallet before adding key") {
		t.Errorf("expected keygen without passphrase to fail, got %v", err)
	}
	if _, err := run(t, "sign", "-c", cfg, "-a", address, "--passphrase", "wrong", "m"); err == nil {
		t.Error("expected wrong passphrase to fail")
	}

	tx := `{"to":"recipient","amount":"5","nonce":1}`
	out, err = run(t, "sign", "-c", cfg, "-a", address, "--passphrase", "secret-passphrase", "--tx", tx)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	signed := strings.TrimSpace(out)
	if !strings.Contains(signed, `"from":"`+address+`"`) {
		t.Errorf("expected sender filled in, got %s", signed)
	}
	if out, err := run(t, "verify", "-c", cfg, "--tx", signed); err != nil || strings.TrimSpace(out) != "valid" {
		t.Errorf("verify tx: %q (%v)", out, err)
	}
}

func TestCapabilities(t *testing.T) {
	cfg := writeConfig(t, testConfig+"middleware:\n  logging: true\n")
	out, err := run(t, "capabilities", "-c", cfg)
	if err != nil {
		t.Fatalf("capabilities: %v", err)
	}
	for _, want := range []string{"Datastore\n", "Keystore\n", "EncryptPrivateKey\n", "StorageMiddleware.Keystore"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := writeConfig(t, testConfig+"storage:\n  backend: etcd\n")
	if _, err := run(t, "list", "-c", cfg); err == nil || !strings.Contains(err.Error(), "unsupported backend") {
		t.Errorf("expected unsupported backend error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "-c", "/does/not/exist.yml")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "walletctl ") {
		t.Errorf("unexpected output %q", out)
	}
}
