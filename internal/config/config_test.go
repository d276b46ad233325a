package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Storage.Backend != "pebble" {
		t.Fatalf("default backend: %q", cfg.Storage.Backend)
	}
	if cfg.Mailbox.PollInterval != time.Second {
		t.Fatalf("poll interval default: %v", cfg.Mailbox.PollInterval)
	}
	if cfg.Mailbox.Resync != 30*time.Second {
		t.Fatalf("resync default: %v", cfg.Mailbox.Resync)
	}
	if cfg.Server.GRPCAddr != ":50051" {
		t.Fatalf("grpc addr default: %q", cfg.Server.GRPCAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "chat.json")
	data := []byte(`{"storage":{"backend":"redis","redis":{"addr":"redis:6379"}},"mailbox":{"pollInterval":"250ms","idStrategy":"sequential"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.Redis.Addr != "redis:6379" {
		t.Fatalf("storage not loaded: %+v", cfg.Storage)
	}
	if cfg.Mailbox.PollInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", cfg.Mailbox.PollInterval)
	}
	if cfg.Mailbox.IDStrategy != "sequential" {
		t.Fatalf("expected sequential")
	}
	// untouched keys keep their defaults
	if cfg.Storage.Redis.Namespace != "simplechat/" || cfg.Server.HTTPAddr != ":8080" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "chat.yaml")
	data := []byte("server:\n  grpcAddr: \":6000\"\n  reflection: true\nlog:\n  level: debug\n  format: json\nsend:\n  ratePerSecond: 2.5\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.GRPCAddr != ":6000" || !cfg.Server.Reflection {
		t.Fatalf("server not loaded: %+v", cfg.Server)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log not loaded: %+v", cfg.Log)
	}
	if cfg.Send.RatePerSecond != 2.5 || cfg.Send.Burst != 10 {
		t.Fatalf("send not loaded: %+v", cfg.Send)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("CHAT_STORE", "redis")
	t.Setenv("CHAT_REDIS_DB", "3")
	t.Setenv("CHAT_POLL_INTERVAL", "2s")
	t.Setenv("CHAT_DELIVERY", "poll")
	t.Setenv("CHAT_SEND_RATE", "5")
	t.Setenv("CHAT_LOG_LEVEL", "warn")
	t.Setenv("CHAT_GRPC_ADDR", "")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("REFLECTION", "true")
	FromEnv(&cfg)
	if cfg.Storage.Backend != "redis" || cfg.Storage.Redis.DB != 3 {
		t.Fatalf("storage env: %+v", cfg.Storage)
	}
	if cfg.Mailbox.PollInterval != 2*time.Second || cfg.Mailbox.Delivery != "poll" {
		t.Fatalf("mailbox env: %+v", cfg.Mailbox)
	}
	if cfg.Send.RatePerSecond != 5 {
		t.Fatalf("send env: %+v", cfg.Send)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log env: %+v", cfg.Log)
	}
	if cfg.Server.GRPCAddr != "127.0.0.1:7000" || !cfg.Server.Reflection {
		t.Fatalf("legacy server env: %+v", cfg.Server)
	}
}

func TestFromEnvIgnoresMalformed(t *testing.T) {
	cfg := Default()
	t.Setenv("CHAT_POLL_INTERVAL", "soon")
	t.Setenv("CHAT_REDIS_DB", "x")
	FromEnv(&cfg)
	if cfg.Mailbox.PollInterval != time.Second || cfg.Storage.Redis.DB != 0 {
		t.Fatalf("malformed values should be ignored: %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	if err := os.WriteFile(file, []byte("CHAT_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CHAT_TEST_DOTENV") })
	if err := LoadDotEnv(file, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("CHAT_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("expected from-file, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "etcd"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected backend error")
	}
	cfg = Default()
	cfg.Mailbox.Delivery = "push"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected delivery error")
	}
	cfg = Default()
	cfg.Send.RatePerSecond = 1
	cfg.Send.Burst = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected burst error")
	}
}
