package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("max_retries: got %d, want 3", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelayMs != 1000 {
		t.Errorf("base_delay_ms: got %d, want 1000", cfg.Retry.BaseDelayMs)
	}
	if cfg.API.TimeoutMs != 30000 {
		t.Errorf("timeout_ms: got %d, want 30000", cfg.API.TimeoutMs)
	}
	if !cfg.Retry.Enabled {
		t.Error("retry should be enabled by default")
	}
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: http://localhost:5003
  timeout_ms: 5000
socket:
  url: ws://localhost:5009/socket
retry:
  enabled: false
  max_retries: 1
  base_delay_ms: 50
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:5003" {
		t.Errorf("base_url: got %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutMs != 5000 {
		t.Errorf("timeout_ms: got %d", cfg.API.TimeoutMs)
	}
	if cfg.Retry.Enabled {
		t.Error("retry should be disabled")
	}
	// Untouched keys keep defaults.
	if cfg.Socket.ReconnectDelayMs != 1000 {
		t.Errorf("reconnect_delay_ms: got %d, want default 1000", cfg.Socket.ReconnectDelayMs)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  max_retries: -1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_RejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{nope"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
