package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Client.Server != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[client]\nservr = \"x\"\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestMergePrecedence(t *testing.T) {
	path := writeConfig(t, `[client]
server = "http://file:1"
timeout = "2s"
log-level = "debug"
no-history = true
`)
	file, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	envCfg, err := LoadEnvFrom(map[string]string{
		"TYPERACE_SERVER":  "https://env:2",
		"TYPERACE_TIMEOUT": "750ms",
	})
	if err != nil {
		t.Fatalf("env: %v", err)
	}

	cfg, err := Merge(Defaults(), file, envCfg)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if cfg.Server != "https://env:2" {
		t.Fatalf("expected env server to win, got %q", cfg.Server)
	}
	if cfg.Timeout != 750*time.Millisecond {
		t.Fatalf("expected env timeout, got %v", cfg.Timeout)
	}
	if cfg.LogLevel != slog.LevelDebug || !cfg.NoHistory {
		t.Fatalf("expected file values for unset env, got %+v", cfg)
	}
}

func TestEnvUnsetStaysNil(t *testing.T) {
	envCfg, err := LoadEnvFrom(map[string]string{})
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	if envCfg.Server != nil || envCfg.Timeout != nil || envCfg.NoHistory != nil {
		t.Fatalf("expected nil fields, got %+v", envCfg)
	}
}

func TestMergeRejectsBadTimeout(t *testing.T) {
	bad := "soon"
	_, err := Merge(Defaults(), FileConfig{Client: ClientConfig{Timeout: &bad}}, EnvConfig{})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Server = "localhost:5000"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected scheme error")
	}
	cfg = Defaults()
	cfg.Timeout = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected timeout error")
	}
}
