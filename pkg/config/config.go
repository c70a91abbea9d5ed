// Package config loads mirlink server configuration from TOML.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// Config is the complete server configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	API     APIConfig     `toml:"api"`
	Journal JournalConfig `toml:"journal"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds the game link listener settings
type ServerConfig struct {
	// Listen is host:port or a multiaddr such as /ip4/0.0.0.0/tcp/7000.
	Listen       string        `toml:"listen"`
	MaxBodySize  int           `toml:"max_body_size"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	PingInterval time.Duration `toml:"ping_interval"`
}

// APIConfig holds the diagnostics HTTP API settings
type APIConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	EnableCORS bool   `toml:"enable_cors"`
}

// JournalConfig holds the frame journal settings
type JournalConfig struct {
	Enabled   bool          `toml:"enabled"`
	Path      string        `toml:"path"`
	Retention time.Duration `toml:"retention"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:       ":7000",
			MaxBodySize:  64 * 1024,
			ReadTimeout:  90 * time.Second,
			WriteTimeout: 10 * time.Second,
			PingInterval: 30 * time.Second,
		},
		API: APIConfig{
			Enabled:    true,
			Addr:       "127.0.0.1:7080",
			EnableCORS: false,
		},
		Journal: JournalConfig{
			Enabled:   false,
			Path:      "./data/journal.db",
			Retention: 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with
func (c Config) Validate() error {
	if _, _, err := ResolveListen(c.Server.Listen); err != nil {
		return fmt.Errorf("server.listen: %w", err)
	}
	if c.Server.MaxBodySize <= 0 {
		return fmt.Errorf("server.max_body_size must be positive")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.PingInterval < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if c.API.Enabled && strings.TrimSpace(c.API.Addr) == "" {
		return fmt.Errorf("api.addr is required when the api is enabled")
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}
	return nil
}

// ResolveListen turns a host:port or multiaddr into net.Listen arguments.
func ResolveListen(addr string) (network, address string, err error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", "", fmt.Errorf("empty address")
	}

	if strings.HasPrefix(addr, "/") {
		m, err := ma.NewMultiaddr(addr)
		if err != nil {
			return "", "", fmt.Errorf("invalid multiaddr %q: %w", addr, err)
		}
		network, address, err = manet.DialArgs(m)
		if err != nil {
			return "", "", fmt.Errorf("unsupported multiaddr %q: %w", addr, err)
		}
		if !strings.HasPrefix(network, "tcp") {
			return "", "", fmt.Errorf("multiaddr %q is not tcp", addr)
		}
		return network, address, nil
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return "tcp", addr, nil
}
