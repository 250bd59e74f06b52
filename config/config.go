// Package config loads the hub server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"learning-hub/internal/client/settings"
)

const (
	defaultAddr = "127.0.0.1"
	defaultPort = ":8000"

	// EnvPrefix marks environment variables that override file values,
	// e.g. HUB_SERVER_PORT or HUB_CLIENT_SEARCH_DEBOUNCE_MS.
	EnvPrefix = "HUB_"
)

// ServerConfig configures the HTTP listener used by hubserver.
type ServerConfig struct {
	Addr        string        `koanf:"addr"`
	Port        string        `koanf:"port"`
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// DataPath is where the store snapshot is written. Empty keeps state in memory.
	DataPath string `koanf:"data_path"`
}

// LogConfig controls where the rotated log file is written.
type LogConfig struct {
	Dir  string `koanf:"dir"`
	File string `koanf:"file"`
}

// SeedConfig points at an optional catalogue replacing the embedded one.
type SeedConfig struct {
	Path string `koanf:"path"`
}

// RateLimitConfig bounds the search suggestion endpoint per client IP.
type RateLimitConfig struct {
	Suggestions int           `koanf:"suggestions"`
	Window      time.Duration `koanf:"window"`
}

// AdminConfig holds the dashboard credentials. An empty password disables
// administrator login.
type AdminConfig struct {
	Username   string        `koanf:"username"`
	Password   string        `koanf:"password"`
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// Config represents the combined runtime settings.
type Config struct {
	Server    ServerConfig      `koanf:"server"`
	Admin     AdminConfig       `koanf:"admin"`
	Log       LogConfig         `koanf:"log"`
	Client    settings.Settings `koanf:"client"`
	Seed      SeedConfig        `koanf:"seed"`
	RateLimit RateLimitConfig   `koanf:"rate_limit"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        defaultAddr,
			Port:        defaultPort,
			ReadTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Dir:  "data",
			File: "hubserver.log",
		},
		Admin: AdminConfig{
			Username:   "admin",
			SessionTTL: 24 * time.Hour,
		},
		Client: settings.Defaults(),
		RateLimit: RateLimitConfig{
			Suggestions: 30,
			Window:      time.Minute,
		},
	}
}

// Load layers the defaults, the YAML (or JSON) file at path and HUB_*
// environment variables. An empty path skips the file layer; a path that
// does not exist is an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Client = cfg.Client.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps HUB_SERVER_READ_TIMEOUT to server.read_timeout. Only the first
// underscore after the section separates levels.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, section := range []string{"rate_limit_"} {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return strings.Replace(key, "_", ".", 1)
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, errors.New("server.read_timeout must not be negative"))
	}
	if c.RateLimit.Suggestions < 0 {
		errs = append(errs, errors.New("rate_limit.suggestions must not be negative"))
	}
	if c.RateLimit.Suggestions > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ListenAddr joins Addr and Port into a net/http listen address.
func (s ServerConfig) ListenAddr() string {
	port := s.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return s.Addr + port
}
