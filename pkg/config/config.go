// Package config handles loading, validating, and resolving Veil daemon configuration.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Veil configuration loaded from config.yaml.
// Everything here is daemon wiring; user-facing choices like the active
// privacy mode live in preferences.json and can change at runtime.
type Config struct {
	Listen  string        `yaml:"listen,omitempty"`
	Tor     TorConfig     `yaml:"tor,omitempty"`
	Search  SearchConfig  `yaml:"search,omitempty"`
	Fetch   FetchConfig   `yaml:"fetch,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// TorConfig points at the local Tor SOCKS endpoint. Veil never starts or
// manages the Tor process itself.
type TorConfig struct {
	SocksAddr string `yaml:"socks_addr,omitempty"`
}

// SearchConfig defines the search backend endpoints.
type SearchConfig struct {
	DuckDuckGoURL  string `yaml:"duckduckgo_url,omitempty"`
	SearxNGURL     string `yaml:"searxng_url,omitempty"`
	SearxNGEngines string `yaml:"searxng_engines,omitempty"`
	TimeoutMs      int    `yaml:"timeout_ms,omitempty"`
}

// FetchConfig bounds page fetches.
type FetchConfig struct {
	TimeoutMs int `yaml:"timeout_ms,omitempty"`
}

// LoggingConfig controls the log stream. Debug enables transport tracing;
// even then no URLs, headers, or bodies are written.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug | info | warn | error
}

// Default returns the configuration used when no config.yaml exists.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:8639",
		Tor:    TorConfig{SocksAddr: "127.0.0.1:9050"},
		Search: SearchConfig{
			DuckDuckGoURL: "https://html.duckduckgo.com/html/",
			SearxNGURL:    "http://127.0.0.1:8888",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// VeilDir returns the path to the Veil data directory (~/.veil/),
// creating it if it doesn't exist. Override with VEIL_DIR env var.
func VeilDir() (string, error) {
	dir := os.Getenv("VEIL_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("determining home directory: %w", err)
		}
		dir = filepath.Join(home, ".veil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating veil directory: %w", err)
	}
	return dir, nil
}

// Load reads config.yaml from the Veil directory, falling back to defaults
// when the file does not exist. Missing fields are filled from Default.
func Load(veilDir string) (*Config, error) {
	path := filepath.Join(veilDir, "config.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Listen == "" {
		cfg.Listen = def.Listen
	}
	if cfg.Tor.SocksAddr == "" {
		cfg.Tor.SocksAddr = def.Tor.SocksAddr
	}
	if cfg.Search.DuckDuckGoURL == "" {
		cfg.Search.DuckDuckGoURL = def.Search.DuckDuckGoURL
	}
	if cfg.Search.SearxNGURL == "" {
		cfg.Search.SearxNGURL = def.Search.SearxNGURL
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// Save marshals the config to YAML and writes it to config.yaml in the
// Veil directory. Creates the parent directory if it doesn't exist.
func Save(veilDir string, cfg *Config) error {
	if err := os.MkdirAll(veilDir, 0o755); err != nil {
		return fmt.Errorf("creating veil directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	header := "# Veil configuration — https://github.com/jcadam/veil\n\n"
	path := filepath.Join(veilDir, "config.yaml")
	return os.WriteFile(path, []byte(header+string(data)), 0o644)
}

// Validate checks internal consistency of the config. The listen address
// must be loopback: the API is a local control surface, never a network
// service.
func Validate(cfg *Config) error {
	host, _, err := net.SplitHostPort(cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen address %q: %w", cfg.Listen, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("listen address %q is not loopback", cfg.Listen)
	}

	if _, _, err := net.SplitHostPort(cfg.Tor.SocksAddr); err != nil {
		return fmt.Errorf("tor socks_addr %q: %w", cfg.Tor.SocksAddr, err)
	}

	for name, raw := range map[string]string{
		"duckduckgo_url": cfg.Search.DuckDuckGoURL,
		"searxng_url":    cfg.Search.SearxNGURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("search %s %q is not an http(s) URL", name, raw)
		}
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", cfg.Logging.Level)
	}

	if cfg.Fetch.TimeoutMs < 0 || cfg.Search.TimeoutMs < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	if e := cfg.Search.SearxNGEngines; e != "" {
		for _, part := range strings.Split(e, ",") {
			if strings.TrimSpace(part) == "" {
				return fmt.Errorf("searxng_engines %q has an empty entry", e)
			}
		}
	}
	return nil
}
