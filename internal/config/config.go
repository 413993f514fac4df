// Package config loads tetherlink configuration from YAML with defaults
// mirroring the service's production endpoints, plus optional hot reload.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Socket  SocketConfig  `yaml:"socket"`
	Retry   RetryConfig   `yaml:"retry"`
	Device  DeviceConfig  `yaml:"device"`
	Network NetworkConfig `yaml:"network"`
}

// APIConfig configures the HTTP request client.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// SocketConfig configures the realtime channel.
type SocketConfig struct {
	URL                string `yaml:"url"`
	ReconnectDelayMs   int    `yaml:"reconnect_delay_ms"`
	ReconnectAttempts  int    `yaml:"reconnect_attempts"`
	HandshakeTimeoutMs int    `yaml:"handshake_timeout_ms"`
}

// RetryConfig configures offline-aware retry for HTTP requests.
type RetryConfig struct {
	Enabled     bool `yaml:"enabled"`
	MaxRetries  int  `yaml:"max_retries"`
	BaseDelayMs int  `yaml:"base_delay_ms"`
}

// DeviceConfig names this installation.
type DeviceConfig struct {
	Name    string `yaml:"name"`     // display name; empty = derived from role
	DataDir string `yaml:"data_dir"` // where device identity and tokens live
}

// NetworkConfig configures reachability probing. A zero interval disables
// probing and the client assumes the network is available.
type NetworkConfig struct {
	ProbeAddr       string `yaml:"probe_addr"`
	ProbeIntervalMs int    `yaml:"probe_interval_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://server.smartwheelers.com",
			TimeoutMs: 30000,
		},
		Socket: SocketConfig{
			URL:                "wss://server.smartwheelers.com/socket",
			ReconnectDelayMs:   1000,
			ReconnectAttempts:  5,
			HandshakeTimeoutMs: 10000,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxRetries:  3,
			BaseDelayMs: 1000,
		},
		Device: DeviceConfig{
			DataDir: defaultDataDir(),
		},
	}
}

// Load reads the config at path, overlaying it on defaults. An empty path or
// a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := url.Parse(c.API.BaseURL); err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}
	if _, err := url.Parse(c.Socket.URL); err != nil {
		return fmt.Errorf("invalid socket.url: %w", err)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0")
	}
	if c.Retry.BaseDelayMs < 0 {
		return fmt.Errorf("retry.base_delay_ms must be >= 0")
	}
	return nil
}

// DefaultPath returns the conventional config location (~/.tetherlink/config.yaml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".tetherlink", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".tetherlink", "data")
}
