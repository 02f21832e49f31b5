package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if !cfg.PrettyLog {
		t.Error("PrettyLog = false, want true by default")
	}
	if cfg.SweepInterval != 24*time.Hour {
		t.Errorf("SweepInterval = %v, want 24h", cfg.SweepInterval)
	}
	if cfg.InstanceID == "" {
		t.Error("InstanceID should be generated when unset")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FAVULS_LISTEN_PORT", ":9999")
	t.Setenv("FAVULS_LOG_LEVEL", "debug")
	t.Setenv("FAVULS_PRETTY_LOG", "false")
	t.Setenv("FAVULS_INSTANCE_ID", "instance-a")
	t.Setenv("FAVULS_SWEEP_INTERVAL", "1h")
	t.Setenv("FAVULS_REDIS_DB", "7")

	cfg := Load()

	if cfg.ListenPort != ":9999" {
		t.Errorf("ListenPort = %q, want :9999", cfg.ListenPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.PrettyLog {
		t.Error("PrettyLog = true, want false")
	}
	if cfg.InstanceID != "instance-a" {
		t.Errorf("InstanceID = %q, want instance-a", cfg.InstanceID)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("SweepInterval = %v, want 1h", cfg.SweepInterval)
	}
	if cfg.RedisDB != 7 {
		t.Errorf("RedisDB = %d, want 7", cfg.RedisDB)
	}
}

func TestLoadFileLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "favuls.yaml")
	content := `
listen_port: ":7070"
log_level: warn
pretty_log: false
sweep_interval: 30m
redis:
  addr: "redis.internal:6379"
  db: 2
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("FAVULS_CONFIG_FILE", path)

	cfg := Load()

	if cfg.ListenPort != ":7070" {
		t.Errorf("ListenPort = %q, want :7070", cfg.ListenPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.PrettyLog {
		t.Error("PrettyLog = true, want false from file")
	}
	if cfg.SweepInterval != 30*time.Minute {
		t.Errorf("SweepInterval = %v, want 30m", cfg.SweepInterval)
	}
	if cfg.RedisAddr != "redis.internal:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.RedisDB != 2 {
		t.Errorf("RedisDB = %d, want 2", cfg.RedisDB)
	}
}

func TestEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "favuls.yaml")
	if err := os.WriteFile(path, []byte("listen_port: \":7070\"\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("FAVULS_CONFIG_FILE", path)
	t.Setenv("FAVULS_LISTEN_PORT", ":6060")

	cfg := Load()
	if cfg.ListenPort != ":6060" {
		t.Errorf("ListenPort = %q, want env value :6060", cfg.ListenPort)
	}
}
