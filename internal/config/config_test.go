package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/weft-dev/weft/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return dir
}

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.Server.Host != DefaultHost || cfg.Server.Port != DefaultPort {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("cache backend = %q", cfg.Cache.Backend)
	}
	if cfg.Stream.Concurrency != 4 {
		t.Errorf("stream concurrency = %d", cfg.Stream.Concurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `{"name": "myapp", "server": {"port": 8080}}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "myapp" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Address() != "localhost:8080" {
		t.Errorf("Address = %q", cfg.Address())
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Backend = %q, want default", cfg.Cache.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("Load of empty dir succeeded")
	}
	if !errors.IsCategory(err, errors.CategoryConfig) {
		t.Errorf("error not in config category: %v", err)
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := writeConfig(t, `{"name": `)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load of malformed file succeeded")
	}
	if !errors.IsCategory(err, errors.CategoryConfig) {
		t.Errorf("error not in config category: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "etcd" }},
		{"bad ttl", func(c *Config) { c.Cache.TTL = "soon" }},
		{"bad freshness", func(c *Config) { c.Cache.Freshness = "often" }},
		{"negative concurrency", func(c *Config) { c.Stream.Concurrency = -1 }},
	}
	for _, tt := range tests {
		cfg := New()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate passed", tt.name)
		}
	}
}

func TestValidateAcceptsShippedBackends(t *testing.T) {
	for _, backend := range []string{"memory", "sql", "s3", "redis"} {
		cfg := New()
		cfg.Cache.Backend = backend
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: Validate failed: %v", backend, err)
		}
	}
}

func TestFreshnessWindow(t *testing.T) {
	cfg := New()

	cfg.Cache.Freshness = "never"
	if d, err := cfg.FreshnessWindow(); err != nil || d >= 0 {
		t.Errorf("never: d=%v err=%v", d, err)
	}

	cfg.Cache.Freshness = "always"
	if d, err := cfg.FreshnessWindow(); err != nil || d != 0 {
		t.Errorf("always: d=%v err=%v", d, err)
	}

	cfg.Cache.Freshness = "45s"
	if d, err := cfg.FreshnessWindow(); err != nil || d != 45*time.Second {
		t.Errorf("45s: d=%v err=%v", d, err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := writeConfig(t, `{"name": "myapp", "dev": {"reload": true}}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Server.Port = 9000
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Server.Port != 9000 {
		t.Errorf("Port = %d after round trip", again.Server.Port)
	}
	if !again.Dev.Reload {
		t.Error("Dev.Reload lost in round trip")
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save with no path succeeded")
	}
}
