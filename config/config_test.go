package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/walletkit/logger"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "walletctl"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug || cfg.Logging.Level != "debug" {
			t.Errorf("expected debug logging for development, got debug=%v level=%q", cfg.Debug, cfg.Logging.Level)
		}
		if cfg.Logging.ServiceName != "walletctl" {
			t.Errorf("expected service name propagated to logging, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps info logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "walletctl", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
		{"invalid logging", ServiceConfig{Name: "svc", Environment: "staging", Logging: logger.Config{Level: "loud"}}, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.Logging.ApplyDefaults()
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Storage       struct {
		Backend   string `mapstructure:"backend"`
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"storage"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: walletctl
environment: staging
storage:
  backend: redis
  key_prefix: app
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("walletctl", &cfg, WithConfigFile(configPath), WithEnvPrefix("WALLETKIT_TEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "walletctl" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.KeyPrefix != "app" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: walletctl\nstorage:\n  backend: memory\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WALLETKIT_TEST_STORAGE_BACKEND", "redis")
	t.Setenv("WALLETKIT_TEST_STORAGE_KEY_PREFIX", "env")

	var cfg testConfig
	if err := LoadConfig("walletctl", &cfg, WithConfigFile(configPath), WithEnvPrefix("walletkit_test_")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.KeyPrefix != "env" {
		t.Errorf("expected env to override file, got %+v", cfg.Storage)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("WALLETKIT_ENVFILE_NAME=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("WALLETKIT_ENVFILE_NAME") })

	var cfg testConfig
	err := LoadConfig("walletctl", &cfg,
		WithConfigFile(filepath.Join(dir, "missing.yml")),
		WithEnvFile(envPath),
		WithEnvPrefix("WALLETKIT_ENVFILE"),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "from-dotenv" {
		t.Errorf("expected name from .env, got %q", cfg.Name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvPrefix("WALLETKIT_NONE"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var cfg testConfig
	if err := LoadConfig("walletctl", &cfg, WithConfigFile(configPath)); err == nil {
		t.Error("expected error for malformed config")
	}
}

type mockFS struct {
	files map[string]bool
	home  string
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(string) error     { return nil }
func (m *mockFS) HomeDir() (string, error) { return m.home, nil }

func TestResolverSearchOrder(t *testing.T) {
	home := filepath.Join("/home", "alice")
	fs := &mockFS{
		home: home,
		files: map[string]bool{
			"config.yml": true,
			filepath.Join("cmd", "walletctl", "config.yml"): true,
			filepath.Join(home, ".walletctl", ".env"):       true,
			filepath.Join(home, ".walletctl", "config.yml"): true,
		},
	}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("walletctl", LoaderConfig{})
	if files.ConfigFile != filepath.Join("cmd", "walletctl", "config.yml") {
		t.Errorf("expected cmd config to win, got %q", files.ConfigFile)
	}
	if files.EnvFile != filepath.Join(home, ".walletctl", ".env") {
		t.Errorf("expected home .env, got %q", files.EnvFile)
	}

	explicit := (&Resolver{FileSystem: fs}).ResolveFiles("walletctl", LoaderConfig{ConfigFile: "x.yml", EnvFile: "y.env"})
	if explicit.ConfigFile != "x.yml" || explicit.EnvFile != "y.env" {
		t.Errorf("explicit paths must win, got %+v", explicit)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("STORAGE_KEY_PREFIX")
	want := []string{"storage_key_prefix", "storage.key_prefix", "storage.key.prefix"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := envKeyVariants("NAME"); !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("single part key must map to itself, got %v", got)
	}
}

func TestOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvPrefix("wallet_")(&lc)
	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" || lc.EnvPrefix != "WALLET" {
		t.Errorf("unexpected loader config %+v", lc)
	}
}
